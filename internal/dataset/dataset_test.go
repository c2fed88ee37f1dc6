package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDataset = `- type: paired-end
  orientation: fr
  left reads:
    - /data/lib1_R1.fastq.gz
  right reads:
    - /data/lib1_R2.fastq.gz
- type: pacbio
  single reads:
    - /data/pb.fastq
- type: single
  single reads:
    - /data/unpaired.fastq
- type: trusted-contigs
  single reads:
    - /data/ref_contigs.fasta
`

func writeDataset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Libraries", func(t *testing.T) {
		ds, err := Load(writeDataset(t, sampleDataset))
		require.NoError(t, err)
		require.Len(t, ds.Libraries, 4)
		require.Equal(t, TypePairedEnd, ds.Libraries[0].Type)
		require.Equal(t, []string{"/data/lib1_R2.fastq.gz"}, ds.Libraries[0].RightReads)
		require.Equal(t, []string{"/data/pb.fastq"}, ds.Libraries[1].SingleReads)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := Load(writeDataset(t, "[]\n"))
		require.ErrorIs(t, err, ErrEmptyDataset)
	})

	t.Run("MissingType", func(t *testing.T) {
		_, err := Load(writeDataset(t, "- orientation: fr\n"))
		require.ErrorContains(t, err, "has no type")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestExcludedFromConstruction(t *testing.T) {
	ds, err := Load(writeDataset(t, sampleDataset))
	require.NoError(t, err)

	require.Equal(t, []int{1, 3}, ds.ExcludedFromConstruction())
	require.Equal(t, []int{0, 2}, ds.LibIDsByType(TypePairedEnd, TypeSingle))

	var none *Dataset
	require.Nil(t, none.ExcludedFromConstruction())
}
