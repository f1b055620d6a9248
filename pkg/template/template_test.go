package template_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/storyboard/storyboard/pkg/resolve"
	"github.com/storyboard/storyboard/pkg/symtab"
	"github.com/storyboard/storyboard/pkg/template"
	"github.com/storyboard/storyboard/pkg/types"
)

func TestParseInstructionsAlternatesParts(t *testing.T) {
	parts := template.ParseInstructions(
		"A tavern. {image $character_reference} The hero says {$line}. {image ./props/sword.png} End.")

	want := []types.TemplatePart{
		{Kind: types.PartText, Content: "A tavern. "},
		{Kind: types.PartImageRef, Key: "character_reference"},
		{Kind: types.PartText, Content: " The hero says "},
		{Kind: types.PartText, Key: "line"},
		{Kind: types.PartText, Content: ". "},
		{Kind: types.PartImageRef, Content: "./props/sword.png"},
		{Kind: types.PartText, Content: " End."},
	}
	if !reflect.DeepEqual(parts, want) {
		t.Fatalf("parsed\n%+v\nwant\n%+v", parts, want)
	}
}

func TestParseInstructionsPlainText(t *testing.T) {
	parts := template.ParseInstructions("No markers at all.")
	if len(parts) != 1 || parts[0].Content != "No markers at all." {
		t.Fatalf("parsed %+v", parts)
	}
}

func TestTemplateVariablesInOrder(t *testing.T) {
	tmpl := &types.ImageTemplate{Parts: template.ParseInstructions(
		"{$b} then {image $a} then {$b} again")}
	got := tmpl.Variables()
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("variables = %v, want [b a]", got)
	}
}

// scenarioDocument defines _nick and _oblivion_dialogue the way a real
// document would, for the end-to-end expansion check.
func scenarioDocument() *types.Document {
	return &types.Document{
		Characters: []*types.Character{
			{ID: "nick", Name: "Nick", ReferencePhoto: "/assets/nick_photo.png"},
		},
		ImageTemplates: []*types.ImageTemplate{
			{ID: "oblivion_dialogue", Parts: template.ParseInstructions(
				"{image $character_reference}A dialogue close-up of '{$character_name}'. Oblivion style.")},
		},
	}
}

func newExpander(t *testing.T, doc *types.Document) *template.Expander {
	t.Helper()
	table, err := symtab.Build(doc)
	if err != nil {
		t.Fatalf("symbol table: %v", err)
	}
	return template.NewExpander(resolve.New(table))
}

func TestExpandResolvesReferencesInBindings(t *testing.T) {
	doc := scenarioDocument()
	e := newExpander(t, doc)

	spec := &types.AssetSpec{
		Template: "oblivion_dialogue",
		Vars: map[string]string{
			"character_reference": "@characters._nick.reference_photo",
			"character_name":      "@characters._nick.name",
		},
	}
	bindings, err := e.BuildBindings(spec, resolve.Context{})
	if err != nil {
		t.Fatalf("bindings failed: %v", err)
	}

	tmpl, _ := doc.ImageTemplate("oblivion_dialogue")
	parts, err := e.Expand(tmpl.Parts, bindings)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}

	want := []types.ResolvedPart{
		types.ImagePart("/assets/nick_photo.png"),
		types.TextPart("A dialogue close-up of '"),
		types.TextPart("Nick"),
		types.TextPart("'. Oblivion style."),
	}
	if !reflect.DeepEqual(parts, want) {
		t.Fatalf("expanded\n%+v\nwant\n%+v", parts, want)
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	doc := scenarioDocument()
	e := newExpander(t, doc)
	tmpl, _ := doc.ImageTemplate("oblivion_dialogue")

	bindings := template.Bindings{
		"character_reference": "/assets/nick_photo.png",
		"character_name":      "Nick",
	}
	first, err := e.Expand(tmpl.Parts, bindings)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	second, err := e.Expand(tmpl.Parts, bindings)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs expanded differently")
	}
}

func TestUnboundVariableNamesTheVariable(t *testing.T) {
	doc := scenarioDocument()
	e := newExpander(t, doc)
	tmpl, _ := doc.ImageTemplate("oblivion_dialogue")

	bindings := template.Bindings{"character_reference": "/assets/nick_photo.png"}
	_, err := e.Expand(tmpl.Parts, bindings)

	var unbound *template.UnboundVariableError
	if !errors.As(err, &unbound) {
		t.Fatalf("error = %v, want UnboundVariableError", err)
	}
	if unbound.Name != "character_name" {
		t.Fatalf("unbound variable = %s, want character_name", unbound.Name)
	}
}

func TestExpandObjectBindingWithDottedAccess(t *testing.T) {
	doc := scenarioDocument()
	doc.Characters[0].TTS = &types.CharacterVoice{Style: "gruff", Voice: "Fenrir"}
	e := newExpander(t, doc)

	spec := &types.AssetSpec{
		Template: "dialogue",
		Vars:     map[string]string{"speaker": "@characters._nick"},
	}
	bindings, err := e.BuildBindings(spec, resolve.Context{})
	if err != nil {
		t.Fatalf("bindings failed: %v", err)
	}

	out, err := e.ExpandString("Say as {$speaker.name} in a {$speaker.tts.style} tone.", bindings)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if out != "Say as Nick in a gruff tone." {
		t.Fatalf("expanded %q", out)
	}
}

func TestExpandStringLeavesPlainTextAlone(t *testing.T) {
	e := newExpander(t, scenarioDocument())
	out, err := e.ExpandString("Kore", template.Bindings{})
	if err != nil || out != "Kore" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestObjectValueWithoutFieldIsAnError(t *testing.T) {
	doc := scenarioDocument()
	e := newExpander(t, doc)

	bindings, err := e.BuildBindings(&types.AssetSpec{
		Template: "x",
		Vars:     map[string]string{"speaker": "@characters._nick"},
	}, resolve.Context{})
	if err != nil {
		t.Fatalf("bindings failed: %v", err)
	}

	if _, err := e.ExpandString("{$speaker}", bindings); err == nil {
		t.Fatal("whole-object substitution should fail, not stringify")
	}
}
