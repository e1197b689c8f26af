package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalDirectional(t *testing.T) {
	assert.True(t, (&Signal{Action: ActionBuy}).Directional())
	assert.True(t, (&Signal{Action: ActionSell}).Directional())
	assert.False(t, (&Signal{Action: ActionHold}).Directional())
}
