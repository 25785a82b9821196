package copywriter

import (
	"sort"
	"strconv"
	"strings"
)

const (
	// Placeholder is rendered for an omitted optional field.
	Placeholder = "未提供"

	// DefaultPrompt is returned for a scene with no template.
	DefaultPrompt = "请生成一篇小红书风格的文案"
)

// Fields maps field keys to the values supplied by the user.
type Fields map[string]string

type renderFunc func(Fields) string

var renderers = make(map[Scene]renderFunc, len(definitions))

func init() {
	for i := range definitions {
		def := &definitions[i]
		renderers[def.Scene] = def.render
	}
}

// Render returns the prompt for scene filled with fields. An unknown scene
// yields DefaultPrompt. fields is not modified.
func Render(scene Scene, fields Fields) string {
	render, ok := renderers[scene]
	if !ok {
		return DefaultPrompt
	}
	return render(fields)
}

// Known reports whether scene has a template.
func Known(scene Scene) bool {
	_, ok := renderers[scene]
	return ok
}

// Scenes returns the definitions of every known scene, sorted by scene.
func Scenes() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	for i := range out {
		out[i].Fields = append([]Field(nil), out[i].Fields...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scene < out[j].Scene })
	return out
}

// Lookup returns the definition of scene.
func Lookup(scene Scene) (Definition, bool) {
	for _, def := range definitions {
		if def.Scene == scene {
			def.Fields = append([]Field(nil), def.Fields...)
			return def, true
		}
	}
	return Definition{}, false
}

// Missing returns the keys of required fields that are absent or empty.
func (d Definition) Missing(fields Fields) []string {
	var missing []string
	for _, f := range d.Fields {
		if f.Required && fields[f.Key] == "" {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

func (d *Definition) render(fields Fields) string {
	var b strings.Builder

	b.WriteString(d.intro)
	b.WriteString("\n\n")

	for _, f := range d.Fields {
		b.WriteString(f.Label)
		b.WriteString("：")
		b.WriteString(f.value(fields))
		b.WriteByte('\n')
	}

	b.WriteString("\n请按照以下结构撰写：\n")
	for i, item := range d.outline {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(item)
		b.WriteByte('\n')
	}

	b.WriteString("\n要求：\n")
	b.WriteString("- 语言风格")
	b.WriteString(d.style)
	b.WriteString("，符合小红书用户的阅读习惯\n")
	b.WriteString("- 适当使用emoji表情符号")
	for _, item := range d.emphasis {
		b.WriteString("\n- ")
		b.WriteString(item)
	}

	return b.String()
}

func (f Field) value(fields Fields) string {
	v := fields[f.Key]
	if v == "" {
		if f.Required {
			return ""
		}
		return Placeholder
	}
	return v + f.Unit
}
