package repo

import (
	"encoding/json"

	"heliomovie/internal/helioviewer"
	"heliomovie/internal/movie"
)

// Params is the stored payload of a movie job: the rendering request plus
// the caller's orchestration options. It round-trips through params_json.
type Params struct {
	Request helioviewer.MovieRequest `json:"request"`
	Options movie.Options            `json:"options"`
}

func (p Params) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeParams(raw string) (Params, error) {
	var p Params
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Params{}, err
	}
	return p, nil
}
