package lesson

import "nihongo/internal/practice"

// Bundle is every document of one lesson.
type Bundle struct {
	Slug       string
	Meta       Meta
	Sidebar    Sidebar
	Theory     Theory
	Simulation Simulation
	Practice   practice.Data
}

// Summary is a lesson entry in the course index.
type Summary struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	UnitTitle string `json:"unitTitle,omitempty"`
	Order     int    `json:"order,omitempty"`
}

type Meta struct {
	Title      string      `json:"title"`
	UnitTitle  string      `json:"unitTitle"`
	Order      int         `json:"order,omitempty"`
	Progress   *Progress   `json:"progress,omitempty"`
	Navigation *Navigation `json:"navigation,omitempty"`
}

// Progress is course-wide completion. Percent is a 0..1 fraction.
type Progress struct {
	Percent          float64 `json:"percent"`
	CompletedLessons int     `json:"completedLessons"`
	TotalLessons     int     `json:"totalLessons"`
}

type Navigation struct {
	PreviousLessonURL string `json:"previousLessonUrl,omitempty"`
	NextLessonURL     string `json:"nextLessonUrl,omitempty"`
}

// Sidebar is the course outline. Its progress figures come from Meta.
type Sidebar struct {
	Chapters []Chapter `json:"chapters"`
}

type Chapter struct {
	Title            string          `json:"title"`
	IsCurrent        bool            `json:"isCurrent"`
	CompletedLessons int             `json:"completedLessons"`
	TotalLessons     int             `json:"totalLessons"`
	Lessons          []OutlineLesson `json:"lessons"`
}

type OutlineLesson struct {
	Title     string `json:"title"`
	Link      string `json:"link,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Status    string `json:"status,omitempty"`
	IsCurrent bool   `json:"isCurrent"`
}

type Theory struct {
	Heading      Heading       `json:"heading"`
	KanaList     []Kana        `json:"kanaList,omitempty"`
	Vocab        []Vocab       `json:"vocab,omitempty"`
	Grammar      []GrammarRule `json:"grammar,omitempty"`
	Conversation *Conversation `json:"conversation,omitempty"`
	Tips         []string      `json:"tips,omitempty"`
	Writing      *Writing      `json:"writing,omitempty"`
}

type Heading struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Kana struct {
	Character   string `json:"character"`
	Romaji      string `json:"romaji"`
	Description string `json:"description,omitempty"`
	ToneClass   string `json:"toneClass,omitempty"`
}

type Vocab struct {
	Word    string `json:"word"`
	Romaji  string `json:"romaji"`
	Meaning string `json:"meaning"`
}

type GrammarRule struct {
	Title       string `json:"title"`
	Structure   string `json:"structure"`
	Romaji      string `json:"romaji,omitempty"`
	Translation string `json:"translation,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Conversation struct {
	Title string             `json:"title,omitempty"`
	Audio string             `json:"audio,omitempty"`
	Lines []ConversationLine `json:"lines"`
}

type ConversationLine struct {
	Speaker string `json:"speaker"`
	JP      string `json:"jp"`
	Romaji  string `json:"romaji,omitempty"`
	VI      string `json:"vi,omitempty"`
}

type Writing struct {
	Description string          `json:"description,omitempty"`
	Characters  []WritingSample `json:"characters"`
}

type WritingSample struct {
	Kana        string `json:"kana"`
	Romaji      string `json:"romaji"`
	Description string `json:"description,omitempty"`
	Tip         string `json:"tip,omitempty"`
	GIF         string `json:"gif,omitempty"`
}

type Simulation struct {
	Description string `json:"description,omitempty"`
	Video       Video  `json:"video"`
	Summary     Recap  `json:"summary"`
}

// Recap is the key-point list under the simulation video.
type Recap struct {
	Items []string `json:"items,omitempty"`
	Tip   string   `json:"tip,omitempty"`
}

type Video struct {
	EmbedURL string `json:"embedUrl,omitempty"`
	Source   string `json:"source,omitempty"`
	Poster   string `json:"poster,omitempty"`
	Duration string `json:"duration,omitempty"`
	Progress string `json:"progress,omitempty"`
}
