package leadstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS leads (
	seq              BIGSERIAL,
	lead_id          TEXT PRIMARY KEY,
	created_at       TIMESTAMPTZ NOT NULL,
	source           TEXT NOT NULL,
	intent           TEXT NOT NULL,
	service_interest TEXT NOT NULL,
	budget_range     TEXT NOT NULL,
	timeline         TEXT NOT NULL,
	urgency_level    TEXT NOT NULL,
	lead_score       INTEGER NOT NULL,
	lead_temperature TEXT NOT NULL,
	ai_summary       TEXT NOT NULL,
	suggested_action TEXT NOT NULL,
	conversation_log JSONB NOT NULL
)`

// PostgresStore is an append-only lead table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create leads table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save inserts the record once; a repeated lead_id is ignored.
func (s *PostgresStore) Save(ctx context.Context, rec lead.Record) error {
	createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	if err != nil {
		return &lead.StoreError{Op: lead.OpSave, Err: fmt.Errorf("parse created_at: %w", err)}
	}
	log, err := json.Marshal(rec.ConversationLog)
	if err != nil {
		return &lead.StoreError{Op: lead.OpSave, Err: fmt.Errorf("marshal conversation_log: %w", err)}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO leads (lead_id, created_at, source, intent, service_interest, budget_range,
			timeline, urgency_level, lead_score, lead_temperature, ai_summary, suggested_action, conversation_log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (lead_id) DO NOTHING`,
		rec.LeadID, createdAt, rec.Source,
		string(rec.Intent), rec.ServiceInterest, string(rec.BudgetRange),
		string(rec.Timeline), string(rec.UrgencyLevel), rec.LeadScore,
		string(rec.LeadTemperature), rec.AISummary, rec.SuggestedAction, log,
	)
	if err != nil {
		return &lead.StoreError{Op: lead.OpSave, Err: fmt.Errorf("insert lead: %w", err)}
	}
	return nil
}

// List returns leads in insertion order.
func (s *PostgresStore) List(ctx context.Context) ([]lead.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT lead_id, created_at, source, intent, service_interest, budget_range,
			timeline, urgency_level, lead_score, lead_temperature, ai_summary, suggested_action, conversation_log
		FROM leads
		ORDER BY seq`)
	if err != nil {
		return nil, &lead.StoreError{Op: lead.OpFetch, Err: fmt.Errorf("query leads: %w", err)}
	}
	defer rows.Close()

	var out []lead.Record
	for rows.Next() {
		var (
			rec       lead.Record
			createdAt time.Time
			log       []byte
			intent, budget, timeline, urgency, temperature string
		)
		if err := rows.Scan(&rec.LeadID, &createdAt, &rec.Source, &intent, &rec.ServiceInterest, &budget,
			&timeline, &urgency, &rec.LeadScore, &temperature, &rec.AISummary, &rec.SuggestedAction, &log); err != nil {
			return nil, &lead.StoreError{Op: lead.OpFetch, Err: fmt.Errorf("scan lead: %w", err)}
		}
		rec.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)
		rec.Intent = lead.Intent(intent)
		rec.BudgetRange = lead.Budget(budget)
		rec.Timeline = lead.Timeline(timeline)
		rec.UrgencyLevel = lead.Urgency(urgency)
		rec.LeadTemperature = lead.Temperature(temperature)

		turns, err := DecodeLog(log)
		if err != nil {
			rec.TranscriptErr = err
			turns = []lead.Turn{}
		}
		rec.ConversationLog = turns
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &lead.StoreError{Op: lead.OpFetch, Err: fmt.Errorf("iterate leads: %w", err)}
	}
	return out, nil
}
