package validation

import (
	"fmt"
	"sort"
	"strings"

	"gestion-stock/internal/api"
	"gestion-stock/internal/common"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns nil when there are no violations, an *Error otherwise.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

// Error carries field violations and matches common.ErrValidation.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Violations))
	for k := range e.Violations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Violations[k])
	}
	return fmt.Sprintf("validation error (%s)", strings.Join(parts, ", "))
}

func (e *Error) Unwrap() error { return common.ErrValidation }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func RequiredID(field string, id int64, v Violations) {
	if id <= 0 {
		v[field] = "required"
	}
}

func Positive(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegative(field string, val *int, v Violations) {
	if val != nil && *val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		v[field] = "required"
		return
	}
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 {
		v[field] = "invalid_email"
	}
}

func Medicin(m api.Medicin) Violations {
	v := Violations{}
	Required("name", m.Name, v)
	NonNegative("quantity", m.Quantity, v)
	NonNegative("seuilAlerte", m.SeuilAlerte, v)
	return v
}

func Lot(l api.Lot) Violations {
	v := Violations{}
	Required("numeroLot", l.NumeroLot, v)
	RequiredID("medicinId", l.MedicinID, v)
	if l.DateExpiration.IsZero() {
		v["dateExpiration"] = "required"
	}
	if l.Quantite < 0 {
		v["quantite"] = "must_not_be_negative"
	}
	return v
}

func StockMovement(m api.StockMovement) Violations {
	v := Violations{}
	if !m.Type.Valid() {
		v["type"] = "invalid"
	}
	Positive("quantite", m.Quantite, v)
	if m.LotID == nil && m.MedicinID == nil {
		v["lotId"] = "lot_or_medicin_required"
	}
	return v
}

func Alert(a api.Alert) Violations {
	v := Violations{}
	if !a.Type.Valid() {
		v["type"] = "invalid"
	}
	Required("message", a.Message, v)
	return v
}

func ActionLog(l api.ActionLog) Violations {
	v := Violations{}
	Required("action", l.Action, v)
	return v
}

func Register(r api.RegisterRequest) Violations {
	v := Violations{}
	Required("username", r.Username, v)
	Email("email", r.Email, v)
	Required("password", r.Password, v)
	if r.Role != "" && !r.Role.Valid() {
		v["role"] = "invalid"
	}
	return v
}

func Login(email, password string) Violations {
	v := Violations{}
	Required("email", email, v)
	Required("password", password, v)
	return v
}
