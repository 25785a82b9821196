// Package copywriter writes 小红书-style copies from scene templates.
//
// Each Scene has a fixed template with declared fields. Render is a pure
// table lookup: it fills the template with the supplied values, renders
// Placeholder for omitted optional fields, and returns DefaultPrompt for a
// scene it does not know. It never fails.
//
// Service.Generate sends the rendered prompt with the copywriter system
// prompt as one non-streamed completion and returns the finished text.
//
// Example:
//
//	prompt := copywriter.Render(copywriter.SceneFood, copywriter.Fields{
//		"restaurantName": "老王面馆",
//		"location":       "成都",
//	})
package copywriter
