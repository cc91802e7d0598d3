package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullableInt(t *testing.T) {
	assert.Nil(t, nullableInt(0))
	assert.Equal(t, 2019, nullableInt(2019))
	assert.Equal(t, 3, nullableInt(3))
}
