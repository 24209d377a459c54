package vdom

import "strings"

// ID sets the id property.
func ID(id string) Attr { return Prop("id", id) }

// Class sets the class property, joining multiple classes with spaces.
func Class(classes ...string) Attr { return Prop("class", strings.Join(classes, " ")) }

// Style sets the style property.
func Style(style string) Attr { return Prop("style", style) }

// Data creates a data-* property.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return Prop("data-"+key, value) }

// Checked sets the checked property.
func Checked(checked bool) Attr { return Prop("checked", checked) }

// Disabled sets the disabled property.
func Disabled(disabled bool) Attr { return Prop("disabled", disabled) }
