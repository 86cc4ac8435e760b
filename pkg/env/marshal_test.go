package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string        `env:"APP_NAME"`
	Port     int           `env:"APP_PORT,required"`
	Ratio    float64       `env:"APP_RATIO"`
	Debug    bool          `env:"APP_DEBUG"`
	Timeout  time.Duration `env:"APP_TIMEOUT"`
	Phrases  []string      `env:"APP_PHRASES" envSeparator:","`
	Token    string        `env:"APP_TOKEN"`
	internal string        `env:"APP_INTERNAL"`
	NoTag    string
}

func TestMarshalEnv(t *testing.T) {
	out, err := MarshalEnv(&sample{
		Name:     "vital bot",
		Port:     8080,
		Ratio:    0.7,
		Debug:    true,
		Timeout:  90 * time.Second,
		Phrases:  []string{"bye", "see you"},
		internal: "hidden",
		NoTag:    "ignored",
	})
	require.NoError(t, err)

	expected := "APP_NAME=\"vital bot\"\n" +
		"APP_PORT=8080\n" +
		"APP_RATIO=0.7\n" +
		"APP_DEBUG=true\n" +
		"APP_TIMEOUT=1m30s\n" +
		"APP_PHRASES=\"bye,see you\"\n" +
		"# APP_TOKEN=\n"
	assert.Equal(t, expected, out)
}

func TestMarshalEnv_RejectsNonStruct(t *testing.T) {
	_, err := MarshalEnv(42)
	assert.Error(t, err)
}
