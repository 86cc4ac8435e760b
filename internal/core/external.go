package core

type WeatherRecord struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	AirQuality  string   `json:"air_quality,omitempty"`
}

func (w *WeatherRecord) IsEmpty() bool {
	return w == nil || (w.Temperature == nil && w.Condition == "" && w.AirQuality == "")
}

type ExternalContextSnapshot struct {
	Weather *WeatherRecord `json:"weather,omitempty"`
	Signals map[string]any `json:"signals,omitempty"`
}

type KnowledgeEntry struct {
	Topic    string   `json:"topic" yaml:"topic"`
	Title    string   `json:"title" yaml:"title"`
	Content  string   `json:"content" yaml:"content"`
	Source   string   `json:"source" yaml:"source"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`
}
