package ai

import (
	"testing"

	"github.com/example/flashdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidates(t *testing.T) {
	content := "What is a channel? | A typed conduit for communication between goroutines\n" +
		"not a card line\n" +
		"What does defer do? | Schedules a call to run when the function returns\n" +
		" | missing front\n" +
		"missing back | \n"

	cards := parseCandidates(content)

	require.Len(t, cards, 2)
	assert.Equal(t, "What is a channel?", cards[0].Front)
	assert.Equal(t, "A typed conduit for communication between goroutines", cards[0].Back)
	assert.Equal(t, models.ProvenanceAI, cards[0].Source)
	assert.Equal(t, models.StatusPending, cards[0].Status)
	assert.NotEmpty(t, cards[0].LocalID)
	assert.NotEqual(t, cards[0].LocalID, cards[1].LocalID)
}

func TestParseCandidates_EmptyContent(t *testing.T) {
	assert.Empty(t, parseCandidates(""))
	assert.Empty(t, parseCandidates("no separators here at all"))
}
