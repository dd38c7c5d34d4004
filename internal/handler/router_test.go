package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/loanease/loanease-go/internal/domain"
	"github.com/loanease/loanease-go/internal/handler"
	"github.com/loanease/loanease-go/internal/infra/directory"
	"github.com/loanease/loanease-go/internal/infra/observability"
	"github.com/loanease/loanease-go/internal/infra/store"
	"github.com/loanease/loanease-go/internal/service"

	"go.uber.org/zap"
)

// staticLLM answers every call with fixed values; handler tests exercise
// routing, not conversation quality.
type staticLLM struct {
	intent domain.Intent
}

func (s *staticLLM) Generate(ctx context.Context, persona domain.AgentType, userMessage string, snapshot *domain.AgentContext, extra string) (string, error) {
	return "static reply", nil
}

func (s *staticLLM) ExtractLoanDetails(ctx context.Context, message string) (*domain.LoanDetails, error) {
	return &domain.LoanDetails{}, nil
}

func (s *staticLLM) ClassifyIntent(ctx context.Context, message string, step domain.Step) (domain.Intent, error) {
	if s.intent == "" {
		return domain.IntentOther, nil
	}
	return s.intent, nil
}

type env struct {
	router   http.Handler
	apps     *store.ApplicationStore
	sessions *store.SessionStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	sessions := store.NewSessionStore(store.SessionStoreConfig{})
	t.Cleanup(sessions.Stop)
	apps := store.NewApplicationStore()
	metrics := observability.NewMetrics()
	orch := service.NewOrchestrator(&staticLLM{}, sessions, apps, directory.New(), metrics, zap.NewNop())
	return &env{
		router:   handler.NewRouter(orch, metrics, zap.NewNop()),
		apps:     apps,
		sessions: sessions,
	}
}

func do(t *testing.T, router http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rec := do(t, e.router, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var health domain.HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %s", health.Status)
	}
}

func TestReadyz(t *testing.T) {
	e := newEnv(t)
	if rec := do(t, e.router, http.MethodGet, "/readyz", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)
	if rec := do(t, e.router, http.MethodGet, "/metrics", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestChatInit_GeneratesSessionID(t *testing.T) {
	e := newEnv(t)
	rec := do(t, e.router, http.MethodGet, "/v1/chat/init", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID   string      `json:"sessionId"`
		CurrentStep domain.Step `json:"currentStep"`
		Message     struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected generated session ID")
	}
	if resp.CurrentStep != domain.StepGreeting {
		t.Errorf("expected greeting, got %s", resp.CurrentStep)
	}
	if !strings.Contains(resp.Message.Content, "Welcome") {
		t.Errorf("unexpected welcome: %q", resp.Message.Content)
	}
}

func TestChatSend_Validation(t *testing.T) {
	e := newEnv(t)

	rec := do(t, e.router, http.MethodPost, "/v1/chat/send",
		bytes.NewBufferString(`{"message":"hi"}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing sessionId: expected 400, got %d", rec.Code)
	}

	rec = do(t, e.router, http.MethodPost, "/v1/chat/send",
		bytes.NewBufferString(`not json`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON: expected 400, got %d", rec.Code)
	}
}

func TestChatSend_IdentifiesCustomer(t *testing.T) {
	e := newEnv(t)
	do(t, e.router, http.MethodGet, "/v1/chat/init?sessionId=s1", nil, "")

	rec := do(t, e.router, http.MethodPost, "/v1/chat/send",
		bytes.NewBufferString(`{"sessionId":"s1","message":"9876543213"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.CurrentStep != domain.StepNeedsAssessment {
		t.Errorf("expected needs_assessment, got %s", resp.CurrentStep)
	}
}

func TestGetSession(t *testing.T) {
	e := newEnv(t)
	do(t, e.router, http.MethodGet, "/v1/chat/init?sessionId=s1", nil, "")

	rec := do(t, e.router, http.MethodGet, "/v1/chat/session/s1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(t, e.router, http.MethodGet, "/v1/chat/session/unknown", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func seedSanctionedApp(e *env) *domain.LoanApplication {
	app := &domain.LoanApplication{
		ID: "APP-SANCTION", CustomerID: "CUST004", CustomerName: "Sunita Reddy",
		RequestedAmount: 500000, ApprovedAmount: 500000, Tenure: 36,
		InterestRate: 11.5, EMI: domain.EMI(500000, 11.5, 36),
		Status:    domain.StatusSanctioned,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	e.apps.Put(app)
	return app
}

func TestSanctionLetter(t *testing.T) {
	e := newEnv(t)
	app := seedSanctionedApp(e)

	rec := do(t, e.router, http.MethodGet, "/v1/chat/sanction-letter?applicationId="+app.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var sl domain.SanctionLetter
	if err := json.Unmarshal(rec.Body.Bytes(), &sl); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if sl.ProcessingFee != 10000 || len(sl.TermsAndConditions) != 7 {
		t.Errorf("got fee=%d terms=%d", sl.ProcessingFee, len(sl.TermsAndConditions))
	}

	if rec := do(t, e.router, http.MethodGet, "/v1/chat/sanction-letter", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing applicationId: expected 400, got %d", rec.Code)
	}
	if rec := do(t, e.router, http.MethodGet, "/v1/chat/sanction-letter?applicationId=nope", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown application: expected 404, got %d", rec.Code)
	}
}

func TestSanctionLetter_NotSanctionedIs400(t *testing.T) {
	e := newEnv(t)
	app := seedSanctionedApp(e)
	app.Status = domain.StatusApproved
	e.apps.Put(app)

	rec := do(t, e.router, http.MethodGet, "/v1/chat/sanction-letter?applicationId="+app.ID, nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSanctionLetterDownload(t *testing.T) {
	e := newEnv(t)
	app := seedSanctionedApp(e)

	rec := do(t, e.router, http.MethodGet, "/v1/chat/sanction-letter/download?applicationId="+app.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "sanction-letter-APP-SANCTION.pdf") {
		t.Errorf("unexpected disposition: %s", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-1.4")) {
		t.Error("body is not a PDF")
	}
}

func TestUploadSalarySlip(t *testing.T) {
	e := newEnv(t)

	// Walk a session into underwriting with an above-limit application.
	app := &domain.LoanApplication{
		ID: "APP-UPLOAD", CustomerID: "CUST004", CustomerName: "Sunita Reddy",
		RequestedAmount: 800000, Tenure: 36, InterestRate: 11.5,
		EMI:    domain.EMI(800000, 11.5, 36),
		Status: domain.StatusUnderwriting, KYCStatus: domain.KYCVerified,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	now := time.Now()
	e.sessions.Put(&domain.ConversationSession{
		ID: "s1", CustomerID: "CUST004", CurrentStep: domain.StepUnderwriting,
		Application: app, StartedAt: now, LastActivityAt: now,
	})
	e.apps.Put(app)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("sessionId", "s1")
	mw.WriteField("applicationId", "APP-UPLOAD")
	fw, _ := mw.CreateFormFile("file", "payslip.pdf")
	fw.Write([]byte("%PDF-1.4 fake payslip"))
	mw.Close()

	rec := do(t, e.router, http.MethodPost, "/v1/chat/upload-salary-slip", &body, mw.FormDataContentType())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.CurrentStep != domain.StepDecision {
		t.Errorf("expected decision after upload, got %s", resp.CurrentStep)
	}
	if resp.Application == nil || resp.Application.Status != domain.StatusApproved {
		t.Errorf("expected approval, got %+v", resp.Application)
	}
}

func TestUploadSalarySlip_MissingParts(t *testing.T) {
	e := newEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("sessionId", "s1")
	mw.Close()

	rec := do(t, e.router, http.MethodPost, "/v1/chat/upload-salary-slip", &body, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCustomers(t *testing.T) {
	e := newEnv(t)

	rec := do(t, e.router, http.MethodGet, "/v1/customers", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var customers []domain.CustomerSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &customers); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(customers) != 7 {
		t.Errorf("expected 7 customers, got %d", len(customers))
	}
	for _, c := range customers {
		if !strings.HasPrefix(c.Phone, "*") {
			t.Errorf("%s: phone %q not masked", c.ID, c.Phone)
		}
	}
}

func TestCreditBureau(t *testing.T) {
	e := newEnv(t)

	rec := do(t, e.router, http.MethodGet, "/v1/credit-bureau/CUST004", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report domain.CreditBureauReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if report.CreditScore != 795 {
		t.Errorf("expected 795, got %d", report.CreditScore)
	}

	if rec := do(t, e.router, http.MethodGet, "/v1/credit-bureau/CUST999", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestOffers(t *testing.T) {
	e := newEnv(t)

	rec := do(t, e.router, http.MethodGet, "/v1/offers/CUST004", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var offers []domain.LoanOffer
	if err := json.Unmarshal(rec.Body.Bytes(), &offers); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(offers) != 3 {
		t.Errorf("expected 3 offers, got %d", len(offers))
	}
}

func TestFunnelMetrics(t *testing.T) {
	e := newEnv(t)
	do(t, e.router, http.MethodGet, "/v1/chat/init", nil, "")

	rec := do(t, e.router, http.MethodGet, "/v1/metrics/funnel", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var funnel domain.FunnelMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &funnel); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if funnel.SessionsStarted != 1 {
		t.Errorf("expected 1 session started, got %d", funnel.SessionsStarted)
	}
}
