package domain

import (
	"context"
	"errors"
	"slices"
	"strings"
)

var errBadControlKey = errors.New("iso control key must be <framework>:<control>")

// Control is one named requirement of an external framework.
type Control struct {
	Title    string `json:"title"`
	Control  string `json:"control"`
	Category string `json:"category"`
}

// Framework groups controls by code.
type Framework struct {
	Name     string             `json:"name"`
	Controls map[string]Control `json:"controls"`
}

// ControlRef is a framework control addressed by its composite key.
type ControlRef struct {
	Key       string `json:"key"`
	Framework string `json:"framework"`
	Code      string `json:"code"`
	Control
}

// ISOControlKey builds the "<framework>:<code>" composite key stored in iso_control.
func ISOControlKey(framework, code string) string {
	return framework + ":" + code
}

// ParseISOControlKey splits a composite key at its last colon, so framework
// names that carry a year ("ISO 27001:2022") survive the round trip.
func ParseISOControlKey(key string) (framework, code string, err error) {
	i := strings.LastIndex(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", "", errBadControlKey
	}
	framework = strings.TrimSpace(key[:i])
	code = strings.TrimSpace(key[i+1:])
	if framework == "" || code == "" {
		return "", "", errBadControlKey
	}
	return framework, code, nil
}

// FlattenControls turns framework search results into composite-key refs,
// ordered by key.
func FlattenControls(frameworks []*Framework) []ControlRef {
	var refs []ControlRef
	for _, fw := range frameworks {
		if fw == nil {
			continue
		}
		for code, c := range fw.Controls {
			refs = append(refs, ControlRef{
				Key:       ISOControlKey(fw.Name, code),
				Framework: fw.Name,
				Code:      code,
				Control:   c,
			})
		}
	}
	slices.SortFunc(refs, func(a, b ControlRef) int { return strings.Compare(a.Key, b.Key) })
	return refs
}

type ISOControlRepository interface {
	Search(ctx context.Context, term string) ([]*Framework, error)
}
