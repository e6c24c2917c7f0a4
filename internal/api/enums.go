package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin      Role = "ADMINISTRATEUR"
	RolePharmacist Role = "MEDICIN"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RolePharmacist:
		return RolePharmacist, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool { return r == RoleAdmin || r == RolePharmacist }

type AlertType string

const (
	AlertStock      AlertType = "STOCK"
	AlertExpiration AlertType = "EXPIRATION"
)

func ParseAlertType(s string) (AlertType, error) {
	switch AlertType(strings.ToUpper(strings.TrimSpace(s))) {
	case AlertStock:
		return AlertStock, nil
	case AlertExpiration:
		return AlertExpiration, nil
	}
	return "", fmt.Errorf("unknown alert type %q", s)
}

func (t AlertType) Valid() bool { return t == AlertStock || t == AlertExpiration }

// MovementType is the direction of a stock movement. IN and OUT are accepted
// on input as aliases of ENTREE and SORTIE.
type MovementType string

const (
	MovementIn  MovementType = "ENTREE"
	MovementOut MovementType = "SORTIE"
)

func ParseMovementType(s string) (MovementType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENTREE", "IN":
		return MovementIn, nil
	case "SORTIE", "OUT":
		return MovementOut, nil
	}
	return "", fmt.Errorf("unknown movement type %q", s)
}

func (t MovementType) Valid() bool { return t == MovementIn || t == MovementOut }

// Sign is +1 for entries and -1 for exits.
func (t MovementType) Sign() int {
	if t == MovementOut {
		return -1
	}
	return 1
}

// Label is the lower-case French word used in action logs.
func (t MovementType) Label() string {
	if t == MovementOut {
		return "sortie"
	}
	return "entrée"
}

func (t *MovementType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = ""
		return nil
	}
	v, err := ParseMovementType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

type HistoryAction string

const (
	HistoryCreate HistoryAction = "Ajout"
	HistoryUpdate HistoryAction = "Modification"
	HistoryDelete HistoryAction = "Suppression"
	HistoryUndo   HistoryAction = "Annulation"
)
