package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-annotate/internal/vcf"
)

func TestTabWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	want := "#CHROM\tPOS\tID\tREF\tALT\tTYPE\tEFFECT\tDEPTH\tSUPPORT\tVAR:REF READS\tALLELE FREQ\n"
	assert.Equal(t, want, buf.String())
}

func TestTabWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	v := &vcf.Variant{
		Chrom:        "1",
		Pos:          "935222",
		ID:           ".",
		Ref:          "C",
		Alt:          "A",
		Type:         "snp",
		Depth:        50,
		VarReadCount: "10",
		RefReadCount: 40,
		SupportRatio: "0.200:0.800",
	}
	require.NoError(t, v.SetEffect("missense_variant"))
	require.NoError(t, v.SetAlleleFreq("0.0123"))

	require.NoError(t, w.Write(v))
	require.NoError(t, w.Flush())

	want := "1\t935222\t.\tC\tA\tsnp\tmissense_variant\t50\t10\t0.200:0.800\t0.0123\n"
	assert.Equal(t, want, buf.String())
}

func TestTabWriter_Write_MultiAllelic(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	v := &vcf.Variant{
		Chrom:        "1",
		Pos:          "1277533",
		ID:           ".",
		Ref:          "T",
		Alt:          "C,G",
		Type:         "snp,snp",
		Depth:        18,
		VarReadCount: "3,5",
		RefReadCount: 10,
		SupportRatio: "0.231:0.769,0.333:0.667",
	}
	require.NoError(t, v.SetEffect("missense_variant"))
	require.NoError(t, v.SetAlleleFreq("."))

	require.NoError(t, w.Write(v))
	require.NoError(t, w.Flush())

	row := strings.TrimSuffix(buf.String(), "\n")
	fields := strings.Split(row, "\t")
	require.Len(t, fields, 11)
	assert.Equal(t, "C,G", fields[4])
	assert.Equal(t, "snp,snp", fields[5])
	assert.Equal(t, "3,5", fields[8])
	assert.Equal(t, "0.231:0.769,0.333:0.667", fields[9])
	assert.Equal(t, ".", fields[10])
}

func TestTabWriter_RowsMatchHeaderWidth(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.WriteHeader())

	v := &vcf.Variant{Chrom: "X", Pos: "123", ID: "rs1", Ref: "A", Alt: "G", Type: "snp", Depth: 7, VarReadCount: "2", RefReadCount: 5, SupportRatio: "0.286:0.714"}
	require.NoError(t, v.SetEffect(""))
	require.NoError(t, v.SetAlleleFreq("."))
	require.NoError(t, w.Write(v))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Count(lines[0], "\t"), strings.Count(lines[1], "\t"))
}
