// Package prompts holds the prompt templates sent to the chat model.
//
// Templates are plain text/template files. The defaults are embedded in the
// binary; a directory can override any of them by file name, so wording can
// change without a rebuild. fallback.yaml holds the no-answer phrase per
// language.
package prompts

import (
	"bytes"
	"crypto/md5"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/language"
	"gopkg.in/yaml.v3"
)

// FallbackPhrase is the answer for questions the excerpts do not cover.
const FallbackPhrase = "This isn't covered in AAOIFI standards"

// CitationFormat is the citation shape the model is asked to use.
const CitationFormat = "(Standard X, Section Y)"

const (
	singleSystem    = "single_system.tmpl"
	roundTripSystem = "roundtrip_system.tmpl"
	englishSystem   = "english_system.tmpl"
	translateSystem = "translate_system.tmpl"
	userTemplate    = "user.tmpl"
	fallbackFile    = "fallback.yaml"
)

var requiredTemplates = []string{singleSystem, roundTripSystem, englishSystem, translateSystem, userTemplate}

//go:embed templates/*
var embedded embed.FS

// Mode selects how translation is handled.
type Mode string

const (
	// ModeSingle answers directly in the user's language in one call.
	ModeSingle Mode = "single"
	// ModeRoundTrip asks the model to translate in, answer and translate
	// back inside one call.
	ModeRoundTrip Mode = "roundtrip"
	// ModeTwoStep answers in English, then translates the answer in a
	// second call when the question was not in English.
	ModeTwoStep Mode = "two_step"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSingle, ModeRoundTrip, ModeTwoStep:
		return m, nil
	case "":
		return ModeSingle, nil
	default:
		return "", fmt.Errorf("unknown prompt mode %q", s)
	}
}

// Prompt is the system and user message pair for one chat call.
type Prompt struct {
	System string
	User   string
}

// Input is what a prompt is built from.
type Input struct {
	Question string
	Language language.Code
	Excerpts string
}

type templateData struct {
	Language       string
	LanguageCode   string
	Question       string
	Excerpts       string
	Fallback       string
	CitationFormat string
}

// Set is one loaded, immutable generation of templates.
type Set struct {
	templates *template.Template
	fallbacks map[language.Code]string
	version   string
}

// Load parses the embedded templates and applies overrides from dir.
// An empty dir means embedded templates only.
func Load(dir string) (*Set, error) {
	root := template.New("prompts").Option("missingkey=error")
	digest := md5.New()

	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	if err := parseFS(root, sub, digest); err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}
	fallbackData, err := fs.ReadFile(sub, fallbackFile)
	if err != nil {
		return nil, fmt.Errorf("embedded fallback phrases: %w", err)
	}
	digest.Write(fallbackData)
	fallbacks, err := parseFallbacks(fallbackData)
	if err != nil {
		return nil, err
	}

	if dir != "" {
		override := os.DirFS(dir)
		if err := parseFS(root, override, digest); err != nil {
			return nil, fmt.Errorf("templates in %s: %w", dir, err)
		}
		data, err := os.ReadFile(filepath.Join(dir, fallbackFile))
		switch {
		case err == nil:
			digest.Write(data)
			overrides, err := parseFallbacks(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Join(dir, fallbackFile), err)
			}
			for code, phrase := range overrides {
				fallbacks[code] = phrase
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	for _, name := range requiredTemplates {
		if root.Lookup(name) == nil {
			return nil, fmt.Errorf("template %s is missing", name)
		}
	}

	return &Set{
		templates: root,
		fallbacks: fallbacks,
		version:   hex.EncodeToString(digest.Sum(nil))[:12],
	}, nil
}

// parseFS adds every template in fsys to root and feeds its name and text
// to digest.
func parseFS(root *template.Template, fsys fs.FS, digest hash.Hash) error {
	names, err := fs.Glob(fsys, "*.tmpl")
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if _, err := root.New(name).Parse(string(data)); err != nil {
			return err
		}
		digest.Write([]byte(name))
		digest.Write(data)
	}
	return nil
}

func parseFallbacks(data []byte) (map[language.Code]string, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid fallback phrases: %w", err)
	}
	out := make(map[language.Code]string, len(raw))
	for code, phrase := range raw {
		out[language.Code(code)] = strings.TrimSpace(phrase)
	}
	return out, nil
}

// Version identifies the template and fallback text this Set was loaded
// from. It changes whenever any of them changes.
func (s *Set) Version() string {
	return s.version
}

// Build renders the answer prompt for the given mode.
func (s *Set) Build(mode Mode, in Input) (Prompt, error) {
	var systemName string
	switch mode {
	case ModeSingle, "":
		systemName = singleSystem
	case ModeRoundTrip:
		systemName = roundTripSystem
	case ModeTwoStep:
		systemName = englishSystem
	default:
		return Prompt{}, fmt.Errorf("unknown prompt mode %q", mode)
	}

	data := s.data(in.Language)
	data.Question = in.Question
	data.Excerpts = in.Excerpts

	system, err := s.render(systemName, data)
	if err != nil {
		return Prompt{}, err
	}
	user, err := s.render(userTemplate, data)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, User: user}, nil
}

// BackTranslation renders the prompt that turns an English answer into
// the target language.
func (s *Set) BackTranslation(target language.Code, answer string) (Prompt, error) {
	system, err := s.render(translateSystem, s.data(target))
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, User: answer}, nil
}

// Fallback returns the no-answer phrase, in English unless localize is set
// and a phrase exists for lang.
func (s *Set) Fallback(lang language.Code, localize bool) string {
	if localize {
		if phrase := s.fallbacks[lang]; phrase != "" {
			return phrase
		}
	}
	if phrase := s.fallbacks[language.English]; phrase != "" {
		return phrase
	}
	return FallbackPhrase
}

func (s *Set) data(lang language.Code) templateData {
	return templateData{
		Language:       lang.Name(),
		LanguageCode:   string(lang),
		Fallback:       s.Fallback(language.English, false),
		CitationFormat: CitationFormat,
	}
}

func (s *Set) render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
