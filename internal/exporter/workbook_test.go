package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	sheets := []Sheet{
		{
			Name:    "使用频次",
			Headers: []string{"翻译使用天数分层", "翻译uv", "占比"},
			Rows: [][]string{
				{"使用1天", "6000", "60.00%"},
				{"合计", "10000", "100.00%"},
			},
		},
		{
			Name:    "反馈分布",
			Headers: []string{"问题类型", "反馈数量"},
			Rows:    [][]string{{"翻译质量问题", "8"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sheets))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"使用频次", "反馈分布"}, f.GetSheetList())

	rows, err := f.GetRows("使用频次")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"翻译使用天数分层", "翻译uv", "占比"},
		{"使用1天", "6000", "60.00%"},
		{"合计", "10000", "100.00%"},
	}, rows)

	typ, err := f.GetCellType("使用频次", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)

	panes, err := f.GetPanes("使用频次")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
}

func TestWriteWorkbookErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteWorkbook(&buf, nil), ErrNoSheets)

	err := WriteWorkbook(&buf, []Sheet{{Name: "a"}, {Name: "a"}})
	assert.ErrorContains(t, err, "duplicate sheet name")
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "发音_朗读", SheetName("发音/朗读"))
	assert.Equal(t, "Sheet", SheetName("  "))
	assert.Len(t, []rune(SheetName(strings.Repeat("长", 40))), maxSheetName)
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 4, DisplayWidth("ab12"))
	assert.Equal(t, 8, DisplayWidth("翻译质量"))
	assert.Equal(t, 7, DisplayWidth("使用1天"))
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, 6000.0, CellValue("6000"))
	assert.Equal(t, 2.32, CellValue("2.32"))
	assert.Equal(t, "60.00%", CellValue("60.00%"))
	assert.Equal(t, "8,000", CellValue("8,000"))
	assert.Equal(t, "2025-10-03", CellValue("2025-10-03"))
	assert.Equal(t, "", CellValue(""))
}
