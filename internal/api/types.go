// Package api holds the JSON contract shared by the REST server and the
// pharmacy client. Field names follow the French wire format.
package api

type Medicin struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	CodeBarres  *string `json:"codeBarres" db:"code_barres"`
	Categorie   *string `json:"categorie" db:"categorie"`
	Fabriquant  string  `json:"fabriquant" db:"fabriquant"`
	SeuilAlerte *int    `json:"seuilAlerte" db:"seuil_alerte"`
	Quantity    *int    `json:"quantity" db:"quantity"`
	UserID      int64   `json:"userId" db:"user_id"`
}

// IsLowStock reports quantity <= threshold; both must be set.
func (m Medicin) IsLowStock() bool {
	return m.Quantity != nil && m.SeuilAlerte != nil && *m.Quantity <= *m.SeuilAlerte
}

func (m Medicin) Qty() int {
	if m.Quantity == nil {
		return 0
	}
	return *m.Quantity
}

func (m Medicin) Category() string {
	if m.Categorie == nil {
		return ""
	}
	return *m.Categorie
}

type Lot struct {
	ID             int64         `json:"id" db:"id"`
	NumeroLot      string        `json:"numeroLot" db:"numero_lot"`
	DateExpiration LocalDate     `json:"dateExpiration" db:"date_expiration"`
	DateEntree     LocalDateTime `json:"dateEntree" db:"date_entree"`
	Quantite       int           `json:"quantite" db:"quantite"`
	MedicinID      int64         `json:"medicinId" db:"medicin_id"`
	UserID         int64         `json:"userId" db:"user_id"`
}

type StockMovement struct {
	ID            int64         `json:"id" db:"id"`
	Motif         string        `json:"motif" db:"motif"`
	DateMouvement LocalDateTime `json:"dateMouvement" db:"date_mouvement"`
	Type          MovementType  `json:"type" db:"type"`
	LotID         *int64        `json:"lotId" db:"lot_id"`
	MedicinID     *int64        `json:"medicinId" db:"medicin_id"`
	UtilisateurID int64         `json:"utilisateurId" db:"utilisateur_id"`
	Quantite      int           `json:"quantite" db:"quantite"`
}

type Alert struct {
	ID         int64         `json:"id" db:"id"`
	Type       AlertType     `json:"type" db:"type"`
	Message    string        `json:"message" db:"message"`
	EstResolue bool          `json:"estResolue" db:"est_resolue"`
	DateAlerte LocalDateTime `json:"dateAlerte" db:"date_alerte"`
	LotID      *int64        `json:"lotId" db:"lot_id"`
	MedicinID  *int64        `json:"medicinId" db:"medicin_id"`
}

// ActionLog is a free-text journal line ("Log" on the wire).
type ActionLog struct {
	ID            int64         `json:"id" db:"id"`
	Action        string        `json:"action" db:"action"`
	DateAction    LocalDateTime `json:"dateAction" db:"date_action"`
	UtilisateurID int64         `json:"utilisateurId" db:"utilisateur_id"`
}

type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Role     Role   `json:"role" db:"role"`
	Token    string `json:"token,omitempty" db:"-"`
	Blocked  bool   `json:"blocked" db:"blocked"`
}

type History struct {
	ID          int64         `json:"id"`
	Action      HistoryAction `json:"action"`
	MedicinName string        `json:"medicinName"`
	EntityType  string        `json:"entityType"`
	EntityID    int64         `json:"entityId"`
	UserID      int64         `json:"userId"`
	DateAction  LocalDateTime `json:"dateAction"`
	EstAnnule   bool          `json:"estAnnule"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" query:"email"`
	Password string `json:"password" query:"password"`
}

type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    User   `json:"user"`
}

type ImportResult struct {
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func Ptr[T any](v T) *T { return &v }

// StockSummary feeds the dashboard counters.
type StockSummary struct {
	Total        int            `json:"total"`
	LowStock     int            `json:"lowStock"`
	Sufficient   int            `json:"sufficient"`
	OutOfStock   int            `json:"outOfStock"`
	ActiveAlerts int            `json:"activeAlerts"`
	ByCategory   map[string]int `json:"byCategory"`
}

type MovementChartPoint struct {
	Label   string `json:"label"` // first day of the bucket
	Entrees int    `json:"entrees"`
	Sorties int    `json:"sorties"`
	Net     int    `json:"net"`
}

type MovementChart struct {
	Period string               `json:"period"` // daily | weekly | monthly
	From   string               `json:"from"`
	To     string               `json:"to"`
	Points []MovementChartPoint `json:"points"`
	Totals MovementChartPoint   `json:"totals"`
}
