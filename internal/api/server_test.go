package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/health-assistant/internal/analysis"
	"github.com/terra-clan/health-assistant/internal/appointments"
	"github.com/terra-clan/health-assistant/internal/assessment"
	"github.com/terra-clan/health-assistant/internal/catalog"
	"github.com/terra-clan/health-assistant/internal/config"
	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/storage"
	"github.com/terra-clan/health-assistant/internal/voice"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	diagnosis := "Tension headache"
	return &models.AnalysisResult{ExtractedSymptoms: text, Diagnosis: &diagnosis}, nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	return "sore throat since yesterday", nil
}

type failingTranscriber struct{}

func (failingTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	return "", &voice.TransportError{Status: "503 Service Unavailable", Err: errors.New("model not loaded")}
}

// blockingAnalyzer holds every analysis until its context is cancelled
type blockingAnalyzer struct {
	started   chan struct{}
	cancelled chan struct{}
}

func (b *blockingAnalyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	close(b.started)
	<-ctx.Done()
	close(b.cancelled)
	return nil, ctx.Err()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func newTestServer(t *testing.T, services Services) *Server {
	t.Helper()

	loader, err := catalog.NewLoader()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	analyzer := services.Analyzer
	if analyzer == nil {
		analyzer = stubAnalyzer{}
	}
	manager := assessment.NewManager(loader, analyzer, time.Hour)
	t.Cleanup(func() { manager.Close() })

	if services.Sessions == nil {
		services.Sessions = manager
	}
	services.Catalog = loader
	services.Analyzer = analyzer
	services.Appointments = appointments.NewService(loader, storage.NewMemoryRepository[*models.Booking]())

	cfg := &config.Config{
		CORS:      config.CORSConfig{Origins: []string{"*"}},
		Assistant: config.AssistantConfig{Enabled: true},
	}
	return NewServer(cfg, services)
}

func do(t *testing.T, s *Server, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid response body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Data, err)
	}
	return v
}

func createSession(t *testing.T, s *Server, kind string) models.Session {
	t.Helper()
	code, env := do(t, s, http.MethodPost, "/api/v1/sessions", map[string]string{"kind": kind})
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %+v", code, env.Error)
	}
	return decode[models.Session](t, env)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, Services{})

	if code, _ := do(t, s, http.MethodGet, "/health", nil); code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", code)
	}
	if code, _ := do(t, s, http.MethodGet, "/ready", nil); code != http.StatusOK {
		t.Errorf("ready: expected 200, got %d", code)
	}
}

func TestVitalsSessionOverHTTP(t *testing.T) {
	s := newTestServer(t, Services{})
	session := createSession(t, s, "vitals")

	if session.Status != models.WizardInProgress || session.Progress.Current != 1 {
		t.Fatalf("unexpected initial state: %+v", session)
	}

	path := "/api/v1/sessions/" + session.ID
	for i := 0; i < 5; i++ {
		code, env := do(t, s, http.MethodPost, path+"/answers", map[string]int{"option": 1})
		if code != http.StatusOK {
			t.Fatalf("answer %d: expected 200, got %d: %+v", i, code, env.Error)
		}
		session = decode[models.Session](t, env)
	}

	if session.Status != models.WizardComplete {
		t.Fatalf("expected complete, got %s", session.Status)
	}
	if session.Vitals == nil || session.Vitals.HeartRate == nil || *session.Vitals.HeartRate != 72 {
		t.Fatalf("unexpected snapshot: %+v", session.Vitals)
	}

	code, env := do(t, s, http.MethodGet, path+"/dashboard", nil)
	if code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", code)
	}
	dash := decode[models.Dashboard](t, env)
	if len(dash.Cards) != 4 || dash.Cards[0].Value != "72 bpm" {
		t.Errorf("unexpected cards: %+v", dash.Cards)
	}

	// Finished questionnaires reject further answers until restarted
	if code, _ := do(t, s, http.MethodPost, path+"/answers", map[string]int{"option": 0}); code != http.StatusConflict {
		t.Errorf("expected 409 after completion, got %d", code)
	}
	if code, _ := do(t, s, http.MethodPost, path+"/start", nil); code != http.StatusConflict {
		t.Errorf("start without reset: expected 409, got %d", code)
	}
	if code, _ := do(t, s, http.MethodPost, path+"/reset", nil); code != http.StatusOK {
		t.Errorf("reset: expected 200, got %d", code)
	}
	if code, _ := do(t, s, http.MethodPost, path+"/start", nil); code != http.StatusOK {
		t.Errorf("start after reset: expected 200, got %d", code)
	}
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, Services{})
	session := createSession(t, s, "issues")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown kind", http.MethodPost, "/api/v1/sessions", map[string]string{"kind": "dental"}, http.StatusBadRequest},
		{"missing kind", http.MethodPost, "/api/v1/sessions", map[string]string{}, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", nil, http.StatusNotFound},
		{"option out of range", http.MethodPost, "/api/v1/sessions/" + session.ID + "/answers", map[string]int{"option": 42}, http.StatusBadRequest},
		{"dashboard of issues session", http.MethodGet, "/api/v1/sessions/" + session.ID + "/dashboard", nil, http.StatusBadRequest},
		{"analysis of issues session", http.MethodPost, "/api/v1/sessions/" + session.ID + "/analysis", nil, http.StatusBadRequest},
		{"bad list filter", http.MethodGet, "/api/v1/sessions?kind=dental", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, s, tt.method, tt.path, tt.body)
			if code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, code)
			}
			if env.Success || env.Error == nil {
				t.Errorf("expected error envelope, got %+v", env)
			}
		})
	}
}

func TestListAndDeleteSessions(t *testing.T) {
	s := newTestServer(t, Services{})
	a := createSession(t, s, "vitals")
	createSession(t, s, "issues")

	_, env := do(t, s, http.MethodGet, "/api/v1/sessions?kind=vitals", nil)
	list := decode[struct {
		Sessions []models.Session `json:"sessions"`
		Total    int              `json:"total"`
	}](t, env)
	if list.Total != 1 || list.Sessions[0].ID != a.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	if code, _ := do(t, s, http.MethodDelete, "/api/v1/sessions/"+a.ID, nil); code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	if code, _ := do(t, s, http.MethodGet, "/api/v1/sessions/"+a.ID, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}

func TestSymptomAnalysisOverHTTP(t *testing.T) {
	s := newTestServer(t, Services{})
	session := createSession(t, s, "symptoms")
	path := "/api/v1/sessions/" + session.ID

	code, env := do(t, s, http.MethodPost, path+"/analysis", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty form, got %d", code)
	}
	if env.Error.Message != analysis.ValidationMessage {
		t.Errorf("unexpected message %q", env.Error.Message)
	}

	if code, _ := do(t, s, http.MethodPut, path+"/description", map[string]string{"text": "throbbing pain"}); code != http.StatusOK {
		t.Fatalf("description: expected 200, got %d", code)
	}
	if code, _ := do(t, s, http.MethodPost, path+"/symptoms", map[string]string{"symptom_id": "1"}); code != http.StatusOK {
		t.Fatalf("select: expected 200, got %d", code)
	}
	if code, _ := do(t, s, http.MethodPost, path+"/symptoms", map[string]string{"symptom_id": "99"}); code != http.StatusNotFound {
		t.Errorf("unknown symptom: expected 404, got %d", code)
	}

	if code, _ := do(t, s, http.MethodPost, path+"/analysis", nil); code != http.StatusAccepted {
		t.Fatalf("analysis: expected 202, got %d", code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, env := do(t, s, http.MethodGet, path, nil)
		session = decode[models.Session](t, env)
		if session.Symptoms.Analysis.Status == models.AnalysisSucceeded {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("analysis did not finish: %+v", session.Symptoms.Analysis)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := session.Symptoms.Analysis.Result.ExtractedSymptoms; got != "throbbing pain, Headache" {
		t.Errorf("unexpected analysis input %q", got)
	}
	if code, _ := do(t, s, http.MethodDelete, path+"/analysis", nil); code != http.StatusConflict {
		t.Errorf("cancel without pending analysis: expected 409, got %d", code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, Services{})

	for _, path := range []string{"/api/v1/catalog/vitals", "/api/v1/catalog/issues"} {
		_, env := do(t, s, http.MethodGet, path, nil)
		data := decode[struct {
			Total int `json:"total"`
		}](t, env)
		if data.Total != 5 {
			t.Errorf("%s: expected 5 questions, got %d", path, data.Total)
		}
	}

	_, env := do(t, s, http.MethodGet, "/api/v1/catalog/recommendations", nil)
	recs := decode[struct {
		Recommendations []struct {
			Category string `json:"category"`
			Title    string `json:"title"`
			Modern   models.RecommendationBundle
		} `json:"recommendations"`
	}](t, env)
	if len(recs.Recommendations) != 5 || recs.Recommendations[0].Title != "Digestive" {
		t.Errorf("unexpected recommendations: %+v", recs.Recommendations)
	}

	_, env = do(t, s, http.MethodGet, "/api/v1/catalog/symptoms", nil)
	symptoms := decode[struct {
		Symptoms []models.Symptom `json:"symptoms"`
	}](t, env)
	if len(symptoms.Symptoms) == 0 {
		t.Error("expected common symptoms")
	}
}

func TestAppointmentsOverHTTP(t *testing.T) {
	s := newTestServer(t, Services{})

	_, env := do(t, s, http.MethodGet, "/api/v1/doctors?q=cardio", nil)
	doctors := decode[struct {
		Doctors []models.Doctor `json:"doctors"`
	}](t, env)
	if len(doctors.Doctors) != 1 || doctors.Doctors[0].ID != "1" {
		t.Fatalf("unexpected search result: %+v", doctors.Doctors)
	}

	if code, _ := do(t, s, http.MethodGet, "/api/v1/doctors/42", nil); code != http.StatusNotFound {
		t.Errorf("unknown doctor: expected 404, got %d", code)
	}

	req := models.CreateBookingRequest{DoctorID: "1", Date: "2025-03-20", Time: "09:00 AM"}
	code, env := do(t, s, http.MethodPost, "/api/v1/appointments", req)
	if code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d: %+v", code, env.Error)
	}
	booking := decode[models.Booking](t, env)

	if code, _ := do(t, s, http.MethodPost, "/api/v1/appointments", req); code != http.StatusConflict {
		t.Errorf("double booking: expected 409, got %d", code)
	}

	_, env = do(t, s, http.MethodGet, "/api/v1/appointments/slots?doctor_id=1&date=2025-03-20", nil)
	slots := decode[struct {
		Slots []string `json:"slots"`
	}](t, env)
	for _, slot := range slots.Slots {
		if slot == "09:00 AM" {
			t.Error("booked slot still listed as free")
		}
	}

	code, env = do(t, s, http.MethodDelete, "/api/v1/appointments/"+booking.ID, nil)
	if code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", code)
	}
	if got := decode[models.Booking](t, env); got.Status != models.BookingCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
}

func audioRequest(t *testing.T, sessionID string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("audio", "note.webm")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake audio"))
	if sessionID != "" {
		w.WriteField("session_id", sessionID)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/transcribe", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestTranscribeUnsupported(t *testing.T) {
	s := newTestServer(t, Services{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, audioRequest(t, ""))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("expected 501, got %d", rec.Code)
	}
}

func TestTranscribeUpstreamFailure(t *testing.T) {
	s := newTestServer(t, Services{Transcriber: failingTranscriber{}})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, audioRequest(t, ""))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var env envelope
	json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Error == nil || env.Error.Code != "upstream_error" || env.Error.Message != "speech service error: 503 Service Unavailable" {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestTranscribeFillsDescription(t *testing.T) {
	s := newTestServer(t, Services{Transcriber: stubTranscriber{}})
	session := createSession(t, s, "symptoms")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, audioRequest(t, session.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	_, env := do(t, s, http.MethodGet, "/api/v1/sessions/"+session.ID, nil)
	got := decode[models.Session](t, env)
	if got.Symptoms.Description != "sore throat since yesterday" {
		t.Errorf("unexpected description %q", got.Symptoms.Description)
	}
}

func TestAssistantWebSocket(t *testing.T) {
	s := newTestServer(t, Services{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/assistant/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var msg AssistantMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != FrameGreeting || msg.Data != Greeting {
		t.Fatalf("unexpected greeting: %+v", msg)
	}

	conn.WriteJSON(AssistantMessage{Type: FrameMessage, Data: "  I keep getting headaches "})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != FrameAnalysis || msg.Result == nil || msg.Result.ExtractedSymptoms != "I keep getting headaches" {
		t.Fatalf("unexpected analysis frame: %+v", msg)
	}

	conn.WriteJSON(AssistantMessage{Type: FrameMessage, Data: "   "})
	msg = AssistantMessage{}
	conn.ReadJSON(&msg)
	if msg.Type != FrameError || msg.Data != analysis.ValidationMessage {
		t.Errorf("unexpected error frame: %+v", msg)
	}

	conn.WriteJSON(AssistantMessage{Type: FrameListening})
	msg = AssistantMessage{}
	conn.ReadJSON(&msg)
	if msg.Type != FrameListening || msg.Listening == nil || !*msg.Listening {
		t.Errorf("expected listening on, got %+v", msg)
	}
}

func TestAssistantDisconnectCancelsAnalysis(t *testing.T) {
	analyzer := &blockingAnalyzer{started: make(chan struct{}), cancelled: make(chan struct{})}
	s := newTestServer(t, Services{Analyzer: analyzer})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/assistant/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	var msg AssistantMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(AssistantMessage{Type: FrameMessage, Data: "chest pain"}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-analyzer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("analysis did not start")
	}

	conn.Close()

	select {
	case <-analyzer.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("analysis was not cancelled after the client disconnected")
	}
}
