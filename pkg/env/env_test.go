package env_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manzanit0/placefinder/pkg/env"
)

func TestLoad(t *testing.T) {
	testCases := []struct {
		desc    string
		vars    map[string]string
		want    env.Config
		wantErr bool
	}{
		{
			desc: "defaults are used when nothing is set",
			vars: map[string]string{},
			want: env.Config{Port: "8080", ThrottleInterval: 500 * time.Millisecond, SessionTTL: 30 * time.Minute},
		},
		{
			desc: "every variable is read",
			vars: map[string]string{
				"PORT":                "9090",
				"GOOGLE_MAPS_API_KEY": "s3cr3t",
				"DATABASE_URL":        "postgres://localhost/placefinder",
				"REVERSE_GEOCODE":     "true",
				"DEBUG":               "1",
				"THROTTLE_INTERVAL":   "250ms",
				"SESSION_TTL":         "1h",
			},
			want: env.Config{
				Port:             "9090",
				GoogleMapsAPIKey: "s3cr3t",
				DatabaseURL:      "postgres://localhost/placefinder",
				ReverseGeocode:   true,
				Debug:            true,
				ThrottleInterval: 250 * time.Millisecond,
				SessionTTL:       time.Hour,
			},
		},
		{
			desc:    "an invalid boolean is an error",
			vars:    map[string]string{"REVERSE_GEOCODE": "perhaps"},
			wantErr: true,
		},
		{
			desc:    "an invalid duration is an error",
			vars:    map[string]string{"THROTTLE_INTERVAL": "soon"},
			wantErr: true,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			for _, k := range []string{"PORT", "GOOGLE_MAPS_API_KEY", "DATABASE_URL", "REVERSE_GEOCODE", "DEBUG", "THROTTLE_INTERVAL", "SESSION_TTL"} {
				t.Setenv(k, tC.vars[k])
			}

			got, err := env.Load()
			if tC.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tC.want, *got)
		})
	}
}
