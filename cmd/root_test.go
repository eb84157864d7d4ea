package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"analyse", "discard", "endorse", "list", "watch", "export", "version"} {
		c, _, err := rootCmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, c.Name())
		}
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
