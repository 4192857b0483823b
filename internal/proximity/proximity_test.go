package proximity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ubuntu/snapview/internal/inventory"
	"github.com/ubuntu/snapview/internal/proximity"
	"github.com/ubuntu/snapview/internal/record"
)

func buildInv(strategy inventory.SearchStrategy) *inventory.DatasetInventory {
	b := inventory.NewBuilder().
		AddDataset("/", inventory.Dataset{SourceName: "rpool", FSKind: inventory.ZFS}).
		AddDataset("/tank", inventory.Dataset{SourceName: "rpool/tank", FSKind: inventory.ZFS}).
		AddDataset("/tank/home", inventory.Dataset{SourceName: "rpool/tank/home", FSKind: inventory.ZFS}).
		AddAltReplicated("/tank/home", inventory.AltReplicated{
			ProximateMount: "/tank/home",
			AlternateMount: []string{"/backup/home"},
		}).
		AddAlias("/mnt/shared", inventory.Alias{RemoteDir: "/tank", FSKind: inventory.ZFS}).
		SetSearchStrategy(strategy)
	return b.Build()
}

func TestResolvePicksNearestAncestorDataset(t *testing.T) {
	t.Parallel()

	inv := buildInv(inventory.ProximateOnly)
	p, err := proximity.Resolve(record.Phantom("/tank/home/user/doc.txt"), inv)
	require.NoError(t, err)
	require.Equal(t, "/tank/home", p.ProximateMount)
	require.False(t, p.ViaAlias)
}

func TestResolveFallsBackToRootDataset(t *testing.T) {
	t.Parallel()

	inv := buildInv(inventory.ProximateOnly)
	p, err := proximity.Resolve(record.Phantom("/etc/hosts"), inv)
	require.NoError(t, err)
	require.Equal(t, "/", p.ProximateMount)
}

func TestResolveNoQualifyingDataset(t *testing.T) {
	t.Parallel()

	inv := inventory.NewBuilder().Build()
	_, err := proximity.Resolve(record.Phantom("/etc/hosts"), inv)
	require.ErrorIs(t, err, record.ErrNoQualifyingDataset)
}

func TestResolveAliasWinsOverAncestorDataset(t *testing.T) {
	t.Parallel()

	inv := buildInv(inventory.ProximateOnly)
	p, err := proximity.Resolve(record.Phantom("/mnt/shared/notes.txt"), inv)
	require.NoError(t, err)
	require.True(t, p.ViaAlias)
	require.Equal(t, "/tank", p.ProximateMount)
}

func TestResolveIncludesAlternatesOnlyWhenStrategyRequestsThem(t *testing.T) {
	t.Parallel()

	proximateOnly := buildInv(inventory.ProximateOnly)
	p, err := proximity.Resolve(record.Phantom("/tank/home/user/doc.txt"), proximateOnly)
	require.NoError(t, err)
	require.False(t, p.HasOptionalAlternate)

	withAlts := buildInv(inventory.IncludeAltReplicated)
	p, err = proximity.Resolve(record.Phantom("/tank/home/user/doc.txt"), withAlts)
	require.NoError(t, err)
	require.True(t, p.HasOptionalAlternate)
	require.Equal(t, []string{"/backup/home"}, p.OptionalAlternates)
}

func TestResolveMissingAltReplicatedEntryIsNonFatal(t *testing.T) {
	t.Parallel()

	inv := inventory.NewBuilder().
		AddDataset("/tank", inventory.Dataset{SourceName: "rpool/tank", FSKind: inventory.ZFS}).
		SetSearchStrategy(inventory.IncludeAltReplicated).
		Build()

	p, err := proximity.Resolve(record.Phantom("/tank/file"), inv)
	require.NoError(t, err)
	require.False(t, p.HasOptionalAlternate)
}
