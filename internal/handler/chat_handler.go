package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/loanease/loanease-go/internal/domain"
	"github.com/loanease/loanease-go/internal/infra/letter"
	"github.com/loanease/loanease-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxSalarySlipBytes caps uploaded salary slips at 5 MiB.
const maxSalarySlipBytes = 5 << 20

// chatInitHandler starts (or re-greets) a conversation. A missing
// sessionId gets a fresh server-generated one, returned in the payload.
func chatInitHandler(orch *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	type initResponse struct {
		SessionID string `json:"sessionId"`
		*domain.ChatResponse
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chat/init")
		defer span.End()

		sessionID := r.URL.Query().Get("sessionId")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		span.SetAttributes(attribute.String("session.id", sessionID))

		resp, err := orch.InitializeSession(ctx, sessionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, initResponse{SessionID: sessionID, ChatResponse: resp})
	}
}

func chatSendHandler(orch *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/send")
		defer span.End()

		var req domain.SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.SessionID == "" || req.Message == "" {
			writeError(w, http.StatusBadRequest, "Session ID and message required")
			return
		}
		span.SetAttributes(attribute.String("session.id", req.SessionID))

		resp, err := orch.ProcessMessage(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func uploadSalarySlipHandler(orch *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/upload-salary-slip")
		defer span.End()

		r.Body = http.MaxBytesReader(w, r.Body, maxSalarySlipBytes)
		if err := r.ParseMultipartForm(maxSalarySlipBytes); err != nil {
			writeError(w, http.StatusBadRequest, "file exceeds the 5 MB limit or form is malformed")
			return
		}

		sessionID := r.FormValue("sessionId")
		applicationID := r.FormValue("applicationId")
		file, header, err := r.FormFile("file")
		if sessionID == "" || applicationID == "" || err != nil {
			writeError(w, http.StatusBadRequest, "Session ID, application ID, and file required")
			return
		}
		file.Close() // content is never inspected in the demo

		span.SetAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("application.id", applicationID),
		)

		resp, err := orch.HandleSalarySlipUpload(ctx, sessionID, applicationID, header.Filename, header.Size)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getSessionHandler(orch *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := orch.Session(chi.URLParam(r, "sessionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func sanctionLetterHandler(orch *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chat/sanction-letter")
		defer span.End()

		applicationID := r.URL.Query().Get("applicationId")
		if applicationID == "" {
			writeError(w, http.StatusBadRequest, "Application ID required")
			return
		}
		span.SetAttributes(attribute.String("application.id", applicationID))

		sl, err := orch.SanctionLetter(ctx, applicationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sl)
	}
}

func sanctionLetterDownloadHandler(orch *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chat/sanction-letter/download")
		defer span.End()

		applicationID := r.URL.Query().Get("applicationId")
		if applicationID == "" {
			writeError(w, http.StatusBadRequest, "Application ID required")
			return
		}
		span.SetAttributes(attribute.String("application.id", applicationID))

		sl, err := orch.SanctionLetter(ctx, applicationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		pdf := letter.RenderPDF(sl)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sanction-letter-%s.pdf", applicationID))
		w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
		w.WriteHeader(http.StatusOK)
		w.Write(pdf)
	}
}
