package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlobRef(t *testing.T) {
	testCases := []struct {
		name string
		ref  string
		want blobLocation
	}{
		{
			name: "simple blob",
			ref:  "abs://acct.blob.core.windows.net/runs/out.ipynb",
			want: blobLocation{
				serviceURL: "https://acct.blob.core.windows.net",
				container:  "runs",
				blob:       "out.ipynb",
			},
		},
		{
			name: "nested blob path",
			ref:  "abs://acct.blob.core.windows.net/runs/2026/08/out.ipynb",
			want: blobLocation{
				serviceURL: "https://acct.blob.core.windows.net",
				container:  "runs",
				blob:       "2026/08/out.ipynb",
			},
		},
		{
			name: "sas token kept",
			ref:  "abs://acct.blob.core.windows.net/runs/out.ipynb?sv=2024-05-04&sig=abc123",
			want: blobLocation{
				serviceURL: "https://acct.blob.core.windows.net",
				container:  "runs",
				blob:       "out.ipynb",
				sas:        "sv=2024-05-04&sig=abc123",
			},
		},
		{
			name: "query without signature is not a sas",
			ref:  "abs://acct.blob.core.windows.net/runs/out.ipynb?versionid=7",
			want: blobLocation{
				serviceURL: "https://acct.blob.core.windows.net",
				container:  "runs",
				blob:       "out.ipynb",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseBlobRef(tc.ref)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseBlobRef_Invalid(t *testing.T) {
	// Missing host, container, or blob segments in every variation.
	refs := []string{
		"abs:///runs/out.ipynb",
		"abs://acct.blob.core.windows.net",
		"abs://acct.blob.core.windows.net/runs",
		"abs://acct.blob.core.windows.net/runs/",
		"abs://acct.blob.core.windows.net//out.ipynb",
	}

	for _, ref := range refs {
		_, err := parseBlobRef(ref)
		assert.Error(t, err, ref)
	}
}
