// Package store gives the services a typed view over the Portal Estiba
// tables (page_events, usuarios, usuarios_premium), regardless of
// whether the rows come from hosted Supabase or a direct Postgres
// connection.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Ident is an identifier column that historical rows store either as a
// JSON string or as a number. It always decodes to its string form;
// JSON null decodes to the empty string.
type Ident string

func (v *Ident) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Ident(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier is neither string nor number: %w", err)
	}
	*v = Ident(n.String())
	return nil
}

// EventRow is one raw row of page_events. Timestamps stay strings here:
// the rows are heterogeneous and parsing (or dropping) happens at
// normalization.
type EventRow struct {
	ID         Ident  `json:"id" db:"id"`
	Page       string `json:"page" db:"page"`
	Chapa      Ident  `json:"chapa" db:"chapa"`
	TS         string `json:"ts" db:"ts"`
	CreatedAt  string `json:"created_at" db:"created_at"`
	InsertedAt string `json:"inserted_at" db:"inserted_at"`
}

// EventUserRow is the chapa-only projection used by the exhaustive
// unique-user scan.
type EventUserRow struct {
	Chapa Ident `json:"chapa" db:"chapa"`
}

// UserRow is one raw row of usuarios.
type UserRow struct {
	ID           Ident  `json:"id" db:"id"`
	Chapa        Ident  `json:"chapa" db:"chapa"`
	Nombre       string `json:"nombre" db:"nombre"`
	FullName     string `json:"full_name" db:"full_name"`
	Email        string `json:"email" db:"email"`
	Rol          string `json:"rol" db:"rol"`
	Estado       string `json:"estado" db:"estado"`
	UltimoAcceso string `json:"ultimo_acceso" db:"ultimo_acceso"`
	LastSignInAt string `json:"last_sign_in_at" db:"last_sign_in_at"`
	CreatedAt    string `json:"created_at" db:"created_at"`
	UpdatedAt    string `json:"updated_at" db:"updated_at"`
}

// SubscriptionRow is one raw row of usuarios_premium.
type SubscriptionRow struct {
	ID            Ident  `json:"id" db:"id"`
	Chapa         Ident  `json:"chapa" db:"chapa"`
	Estado        string `json:"estado" db:"estado"`
	PeriodoInicio string `json:"periodo_inicio" db:"periodo_inicio"`
	PeriodoFin    string `json:"periodo_fin" db:"periodo_fin"`
	CreatedAt     string `json:"created_at" db:"created_at"`
}

// DecodeRows converts raw JSON documents into typed rows, failing
// closed: a row whose shape does not match is dropped, never
// zero-filled.
func DecodeRows[T any](raw []json.RawMessage, table string, logger *zap.Logger) []T {
	rows := make([]T, 0, len(raw))
	dropped := 0

	for _, doc := range raw {
		var row T
		if err := json.Unmarshal(doc, &row); err != nil {
			dropped++
			continue
		}
		rows = append(rows, row)
	}

	if dropped > 0 {
		logger.Debug("Dropped malformed rows",
			zap.String("table", table),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(rows)),
		)
	}

	return rows
}
