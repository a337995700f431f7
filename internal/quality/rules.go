package quality

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Flag texts that do not depend on configured minimums.
const (
	FlagMissingAssets     = "Missing visual assets"
	FlagProfileIncomplete = "Instructor profile incomplete"
)

// Weights holds the score contribution of each rule.
type Weights struct {
	Curriculum       int `yaml:"curriculum"`
	Lectures         int `yaml:"lectures"`
	Assets           int `yaml:"assets"`
	Originality      int `yaml:"originality"`
	Instructor       int `yaml:"instructor"`
	DuplicatePenalty int `yaml:"duplicate_penalty"`
}

// Rules holds every threshold and weight used by the gate.
type Rules struct {
	PassScore          int     `yaml:"pass_score"`
	MinSections        int     `yaml:"min_sections"`
	MinLectures        int     `yaml:"min_lectures"`
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
	Weights            Weights `yaml:"weights"`

	// LenientLookups scores a failed lookup as absent data instead of
	// returning a FetchError.
	LenientLookups bool `yaml:"lenient_lookups"`
}

// DefaultRules returns the production scoring rules.
func DefaultRules() Rules {
	return Rules{
		PassScore:          60,
		MinSections:        2,
		MinLectures:        5,
		DuplicateThreshold: 0.8,
		Weights: Weights{
			Curriculum:       20,
			Lectures:         20,
			Assets:           20,
			Originality:      20,
			Instructor:       20,
			DuplicatePenalty: 50,
		},
	}
}

// LoadRules reads a YAML rules file over the defaults. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks that thresholds and weights are usable.
func (r Rules) Validate() error {
	if r.MinSections < 0 {
		return fmt.Errorf("min_sections must be non-negative, got %d", r.MinSections)
	}
	if r.MinLectures < 0 {
		return fmt.Errorf("min_lectures must be non-negative, got %d", r.MinLectures)
	}
	if r.DuplicateThreshold <= 0 || r.DuplicateThreshold > 1 {
		return fmt.Errorf("duplicate_threshold must be in (0, 1], got %v", r.DuplicateThreshold)
	}

	w := r.Weights
	for name, v := range map[string]int{
		"curriculum":        w.Curriculum,
		"lectures":          w.Lectures,
		"assets":            w.Assets,
		"originality":       w.Originality,
		"instructor":        w.Instructor,
		"duplicate_penalty": w.DuplicatePenalty,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %d", name, v)
		}
	}
	return nil
}

// Passes reports whether score clears the pass threshold.
func (r Rules) Passes(score int) bool {
	return score >= r.PassScore
}

func (r Rules) shortCourseFlag() string {
	return fmt.Sprintf("Course too short (needs %d+ sections)", r.MinSections)
}

func (r Rules) fewLecturesFlag() string {
	return fmt.Sprintf("Not enough lectures (needs %d+)", r.MinLectures)
}

// DuplicateFlag names the prior course a submission was found to resemble.
func DuplicateFlag(title string) string {
	return `Potential Duplicate: Similar to "` + title + `"`
}
