package roster

// UserProfile is one row of the user roster, already cross-referenced
// with the premium set. The display fallbacks mirror what the portal
// frontend has always shown for incomplete records.
type UserProfile struct {
	ID        string `json:"id"`
	Chapa     string `json:"chapa"`
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Rol       string `json:"rol"`
	Estado    string `json:"estado"`
	Premium   bool   `json:"premium"`
	LastSeen  string `json:"last_seen,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Subscription is one active premium subscription joined to its user
// by chapa. PlanInterval is derived, not stored: a period spanning more
// than 45 days counts as annual.
type Subscription struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id,omitempty"`
	Chapa         string `json:"chapa"`
	Status        string `json:"status"`
	PlanInterval  string `json:"plan_interval"`
	PeriodoInicio string `json:"periodo_inicio,omitempty"`
	PeriodoFin    string `json:"periodo_fin,omitempty"`
	CreatedAt     string `json:"created_at"`
	UserEmail     string `json:"user_email"`
	UserName      string `json:"user_name"`
}

const (
	PlanMonthly = "Monthly"
	PlanAnnual  = "Annual"
)
