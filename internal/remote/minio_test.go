package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresEndpointAndBucket(t *testing.T) {
	_, err := New(Config{Bucket: "b"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(Config{Endpoint: "localhost:9000"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := New(Config{Endpoint: "localhost:9000", Bucket: "chatvault", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "chatvault", c.bucket)
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"backup.json", "backups/backup.json", false},
		{"/home/me/exports/backup.json", "backups/backup.json", false},
		{`C:\exports\backup.sealed`, "backups/backup.sealed", false},
		{"", "", true},
		{"/", "", true},
		{"..", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ObjectKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType([]byte(`{"timestamp":1}`)))
	assert.Equal(t, "application/json", ContentType([]byte("\n  {}")))
	assert.Equal(t, "application/octet-stream", ContentType([]byte("CHATVAULT-SEALED\x01...")))
	assert.Equal(t, "application/octet-stream", ContentType(nil))
}

func TestSortNewestFirst(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	objs := []Object{
		{Name: "old.json", Modified: t0},
		{Name: "b.json", Modified: t0.Add(time.Hour)},
		{Name: "a.json", Modified: t0.Add(time.Hour)},
		{Name: "new.json", Modified: t0.Add(2 * time.Hour)},
	}

	SortNewestFirst(objs)

	var names []string
	for _, o := range objs {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"new.json", "a.json", "b.json", "old.json"}, names)
}
