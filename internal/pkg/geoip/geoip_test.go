package geoip_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"shortn/internal/pkg/geoip"
)

func TestOpenGeoDBMissingFile(t *testing.T) {
	assert.Nil(t, geoip.OpenGeoDB(""))
	assert.Nil(t, geoip.OpenGeoDB(filepath.Join(t.TempDir(), "missing.mmdb")))
}

func TestLookupWithoutDatabase(t *testing.T) {
	assert.Equal(t, geoip.Location{}, geoip.Lookup(nil, "8.8.8.8"))
}
