// Package template renders markup templates into html.Node trees and
// patches them in place when only hole values change.
//
// A template is its static segments plus one value per hole:
//
//	var row = []string{`<li class="`, `">`, `</li>`}
//
//	res := template.HTML(row, cls, label)
//	inst, err := template.Render(res, container)
//
// Rendering again with the same segments patches the existing nodes and
// touches only the holes whose values changed. Rendering different
// segments replaces the whole instance.
//
// Hole kinds follow from where the hole sits in the markup:
//
//	<p>${v}</p>               child content: text, nodes, templates, lists
//	<a href=${v}>             attribute; nil removes it
//	<input ?disabled=${v}>    boolean attribute
//	<input .value=${v}>       property
//	<button @click=${fn}>     event listener
//	<div :name.mod=${v}>      binding from a Registry
package template
