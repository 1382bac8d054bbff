package domain

import (
	"fmt"
	"strings"
)

// Persona is a cosmetic text-styling profile applied to response formatting.
// It has no behavioral effect on recognition or dispatch.
type Persona string

const (
	PersonaMinimal     Persona = "minimal"
	PersonaFriendly    Persona = "friendly"
	PersonaEncouraging Persona = "encouraging"
	PersonaTechnical   Persona = "technical"
	PersonaSymbiotic   Persona = "symbiotic"
)

// AllPersonas lists the supported styling profiles.
var AllPersonas = []Persona{
	PersonaMinimal,
	PersonaFriendly,
	PersonaEncouraging,
	PersonaTechnical,
	PersonaSymbiotic,
}

// ParsePersona validates a user-supplied persona name.
func ParsePersona(value string) (Persona, error) {
	if value == "" {
		return PersonaFriendly, nil
	}
	candidate := Persona(strings.ToLower(strings.TrimSpace(value)))
	for _, p := range AllPersonas {
		if candidate == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown persona %q (valid: %s)", value, personaNames())
}

func personaNames() string {
	names := make([]string, len(AllPersonas))
	for i, p := range AllPersonas {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
