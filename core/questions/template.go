package questions

import (
	"fmt"
	"regexp"

	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

const (
	easyTemplate   = "What is the distance between %s and %s?"
	mediumTemplate = "What's the distance between %s and its closest city?"
	hardTemplate   = "The distance from %s to %s is similar to the distance from %s to what other city or town?"
)

var (
	easyPattern   = regexp.MustCompile(`^What is the distance between (.+?) and (.+)\?$`)
	mediumPattern = regexp.MustCompile(`^What's the distance between (.+) and its closest city\?$`)
	hardPattern   = regexp.MustCompile(`^The distance from (.+?) to (.+?) is similar to the distance from (.+) to what other city or town\?$`)
)

// Render fills the template of the tier with the given city names.
// Easy takes two names, medium one and hard three.
func Render(d model.Difficulty, cities ...string) (string, error) {
	switch d {
	case model.DifficultyEasy:
		if len(cities) == 2 {
			return fmt.Sprintf(easyTemplate, cities[0], cities[1]), nil
		}
	case model.DifficultyMedium:
		if len(cities) == 1 {
			return fmt.Sprintf(mediumTemplate, cities[0]), nil
		}
	case model.DifficultyHard:
		if len(cities) == 3 {
			return fmt.Sprintf(hardTemplate, cities[0], cities[1], cities[2]), nil
		}
	default:
		return "", helper.NewError("render question", fmt.Errorf("%w: unknown difficulty %q", model.ErrInput, d))
	}
	return "", helper.NewError("render question", fmt.Errorf("%w: %s question takes a different number of cities than %d", model.ErrInput, d, len(cities)))
}

// Parse recovers the city names from a rendered question
func Parse(d model.Difficulty, text string) ([]string, error) {
	var pattern *regexp.Regexp
	switch d {
	case model.DifficultyEasy:
		pattern = easyPattern
	case model.DifficultyMedium:
		pattern = mediumPattern
	case model.DifficultyHard:
		pattern = hardPattern
	default:
		return nil, helper.NewError("parse question", fmt.Errorf("%w: unknown difficulty %q", model.ErrInput, d))
	}

	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return nil, helper.NewError("parse question", fmt.Errorf("%w: %q is not a %s question", model.ErrInput, text, d))
	}
	return match[1:], nil
}
