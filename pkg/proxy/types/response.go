package types

// ClearResponse is returned after a session is reset.
type ClearResponse struct {
	Success bool `json:"success"`
}

// CopyResponse carries a generated copy.
type CopyResponse struct {
	Copy string `json:"copy"`
}

// ScenesResponse lists the scenes a copy can be generated for.
type ScenesResponse struct {
	Scenes []Scene `json:"scenes"`
}

// Scene describes one scene template.
type Scene struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Fields []SceneField `json:"fields"`
}

// SceneField describes one input of a scene template.
type SceneField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Unit     string `json:"unit,omitempty"`
}
