package worker

// statement_worker.go
// Builds the account statement of one client, renders the PDF and mails
// it. Failures bubble up to the pool for retry / DLQ.

import (
	"context"
	"encoding/json"
	"fmt"

	"soderia/internal/infra"
	"soderia/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StatementJobPayload is the job envelope sent to QueueStatements.
type StatementJobPayload struct {
	ClientID string `json:"client_id"`
	ToEmail  string `json:"to_email"`
}

type StatementWorker struct {
	clients      service.ClientService
	mailer       *infra.Mailer
	businessName string
	storagePath  string
}

func NewStatementWorker(clients service.ClientService, mailer *infra.Mailer, businessName, storagePath string) *StatementWorker {
	return &StatementWorker{clients: clients, mailer: mailer, businessName: businessName, storagePath: storagePath}
}

func (w *StatementWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload StatementJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Malformed payloads never succeed; drop instead of retrying.
		log.Error().Err(err).Msg("statement_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("statement_worker: empty to_email — skipping")
		return nil
	}
	clientID, err := uuid.Parse(payload.ClientID)
	if err != nil {
		log.Error().Str("client_id", payload.ClientID).Msg("statement_worker: invalid client id")
		return nil
	}

	statement, err := w.clients.Statement(ctx, clientID)
	if err != nil {
		return fmt.Errorf("statement_worker: build statement: %w", err)
	}

	pdfPath, err := infra.GenerateStatementPDF(statement, w.businessName, w.storagePath)
	if err != nil {
		return fmt.Errorf("statement_worker: render pdf: %w", err)
	}

	subject := fmt.Sprintf("Resumen de cuenta — %s", statement.Client.Name)
	body := fmt.Sprintf(
		"Hola %s,\n\nAdjuntamos su resumen de cuenta corriente.\nSaldo actual: $%s\nEnvases en su poder: %d\n\nGracias.",
		statement.Client.Name, statement.Balance.StringFixed(2), statement.Containers,
	)
	if err := w.mailer.SendStatement(payload.ToEmail, subject, body, pdfPath); err != nil {
		return fmt.Errorf("statement_worker: send email: %w", err)
	}

	log.Info().Str("to", payload.ToEmail).Str("client_id", payload.ClientID).Msg("statement_worker: resumen enviado")
	return nil
}
