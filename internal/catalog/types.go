package catalog

import (
	"regexp"
	"strings"
)

// Question is a multiple-choice quiz question attached to a video.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"question"`
	Choices []string `json:"choix"`
	Correct string   `json:"bonne_reponse"`

	// Duration overrides the countdown length in ticks (0 = default).
	Duration int `json:"duration,omitempty"`
}

// Video is a remediation video record. Field names on the wire follow the
// upstream catalog API.
type Video struct {
	ID            string     `json:"id"`
	Title         string     `json:"titre"`
	URL           string     `json:"videoUrl"`
	Level         string     `json:"niveau"`
	Subject       string     `json:"matiere,omitempty"`
	Skills        []string   `json:"notions"`
	Prerequisites []string   `json:"prerequis"`
	Questions     []Question `json:"questions"`
	ReleaseMonths []string   `json:"mois"`
}

// Teaches reports whether the video teaches the given skill.
func (v *Video) Teaches(skill string) bool {
	for _, s := range v.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// SharesSkill reports whether v and other teach at least one common skill.
func (v *Video) SharesSkill(other *Video) bool {
	for _, s := range v.Skills {
		if other.Teaches(s) {
			return true
		}
	}
	return false
}

// HasQuestion reports whether the video carries a question with the given ID.
func (v *Video) HasQuestion(id string) bool {
	for _, q := range v.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// FirstReleaseMonth returns the first configured release month, or "".
func (v *Video) FirstReleaseMonth() string {
	if len(v.ReleaseMonths) == 0 {
		return ""
	}
	return v.ReleaseMonths[0]
}

var playableURL = regexp.MustCompile(`^https?://.+`)

// Playable reports whether the video URL can be handed to a player.
func (v *Video) Playable() bool {
	return playableURL.MatchString(v.URL)
}

// cleanURL trims whitespace and surrounding double quotes.
func cleanURL(u string) string {
	return strings.Trim(strings.TrimSpace(u), `"`)
}

// normalize fills missing collections with empty values and cleans the URL.
func normalize(videos []Video) []Video {
	for i := range videos {
		v := &videos[i]
		v.URL = cleanURL(v.URL)
		if v.Skills == nil {
			v.Skills = []string{}
		}
		if v.Prerequisites == nil {
			v.Prerequisites = []string{}
		}
		if v.ReleaseMonths == nil {
			v.ReleaseMonths = []string{}
		}
		if v.Questions == nil {
			v.Questions = []Question{}
		}
		for j := range v.Questions {
			if v.Questions[j].Choices == nil {
				v.Questions[j].Choices = []string{}
			}
		}
	}
	return videos
}
