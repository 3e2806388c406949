package parsers_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/parsers"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

func TestRegistryDispatch(t *testing.T) {
	reg, err := parsers.NewRegistry(parsers.All()...)
	require.NoError(t, err)

	for _, fam := range []string{"gzip", "png", "jpeg", "zip", "ooxml", "ole2", "pdf", "rar", "mp4"} {
		p := reg.Dispatch(fam)
		require.NotNil(t, p, "no parser for %s", fam)
		require.Equal(t, fam, p.Family())
	}
	require.Nil(t, reg.Dispatch("unknown"))
	require.Nil(t, reg.Dispatch("gif"), "signature-only families have no parser")
	require.Len(t, reg.Families(), 9)
}

func TestRegistryRejectsDuplicateFamily(t *testing.T) {
	_, err := parsers.NewRegistry(&parsers.GzipParser{}, &parsers.GzipParser{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestRegistryRunUnknownFamilyIsNotAnError(t *testing.T) {
	reg, err := parsers.NewRegistry(parsers.All()...)
	require.NoError(t, err)

	res := sniff.Result{FormatFamily: sniff.FamilyUnknown}
	feats, err := reg.Run(res, sniff.FromBytes([]byte("plain text")))
	require.NoError(t, err)
	require.Nil(t, feats)
}

type panickyParser struct{}

func (*panickyParser) Family() string { return "boom" }
func (*panickyParser) Parse(*sniff.Sample) (map[string]any, error) {
	var b []byte
	_ = b[3] // index out of range
	return nil, nil
}

func TestParseConvertsPanicToError(t *testing.T) {
	feats, err := parsers.Parse(&panickyParser{}, sniff.FromBytes([]byte("x")))
	require.Error(t, err)
	require.Nil(t, feats)
	require.Contains(t, err.Error(), "boom parser")
}
