package integrations

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerbaras/fanqie/pkg/config"
	"github.com/kerbaras/fanqie/pkg/data"
)

func testBook() *data.Book {
	return &data.Book{
		ID:     "101",
		Title:  "测试小说",
		Status: "连载中",
		Chapters: []data.Chapter{
			{Title: "第1章 开端", RemoteID: "1", Content: "第一段。\n第二段。"},
			{Title: "第2章 缺失", RemoteID: "2"},
			{Title: "第3章 结局", RemoteID: "3", Content: "终章正文。"},
		},
	}
}

func TestSingleTXT(t *testing.T) {
	dir := t.TempDir()
	r := &SingleTXT{Dir: dir, Indent: "　　"}

	path, err := r.Render(testBook())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "测试小说.txt"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "第1章 开端\n")
	assert.Contains(t, text, "　　第一段。\n")
	assert.Contains(t, text, "　　第二段。")
	assert.NotContains(t, text, "第2章 缺失")

	// Reading order is preserved.
	assert.Less(t, strings.Index(text, "第1章"), strings.Index(text, "第3章"))
}

func TestSplitTXT(t *testing.T) {
	dir := t.TempDir()
	r := &SplitTXT{Dir: dir}

	out, err := r.Render(testBook())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "测试小说"), out)

	body, err := os.ReadFile(filepath.Join(out, "第1章 开端.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "第一段。")

	_, err = os.Stat(filepath.Join(out, "第2章 缺失.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestHTML(t *testing.T) {
	dir := t.TempDir()
	r := &HTML{Dir: dir}

	out, err := r.Render(testBook())
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "chapter_0001.html")
	assert.Contains(t, string(index), "第1章 开端")
	assert.NotContains(t, string(index), "第2章 缺失")

	first, err := os.ReadFile(filepath.Join(out, "chapter_0001.html"))
	require.NoError(t, err)
	assert.Contains(t, string(first), "<p>第一段。</p>")
	assert.Contains(t, string(first), "下一章")
	assert.NotContains(t, string(first), "上一章")

	last, err := os.ReadFile(filepath.Join(out, "chapter_0002.html"))
	require.NoError(t, err)
	assert.Contains(t, string(last), "终章正文。")
	assert.Contains(t, string(last), "上一章")
	assert.NotContains(t, string(last), "下一章")
}

func TestLaTeX(t *testing.T) {
	dir := t.TempDir()
	r := &LaTeX{Dir: dir}

	book := testBook()
	book.Chapters[0].Content = "含特殊字符 100% & #1。"
	path, err := r.Render(book)
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `\documentclass[UTF8]{ctexart}`)
	assert.Contains(t, text, `\section{第1章 开端}`)
	assert.Contains(t, text, `100\% \& \#1。`)
	assert.NotContains(t, text, "第2章 缺失")
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEPUB(t *testing.T) {
	dir := t.TempDir()
	r := &EPUB{Dir: dir, Author: "作者甲", Cover: testPNG(t, 1200, 1600)}

	path, err := r.Render(testBook())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "测试小说.epub"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestEPUBWithoutCover(t *testing.T) {
	r := &EPUB{Dir: t.TempDir()}
	_, err := r.Render(testBook())
	assert.NoError(t, err)
}

func TestDownscaleCover(t *testing.T) {
	small, err := downscaleCover(testPNG(t, 1200, 900))
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, maxCoverWidth, img.Bounds().Dx())
	assert.Equal(t, 450, img.Bounds().Dy())
}

func TestDownscaleCoverKeepsSmallImages(t *testing.T) {
	small, err := downscaleCover(testPNG(t, 300, 400))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestNewDispatch(t *testing.T) {
	cfg := config.Default()

	cases := []struct {
		mode config.SaveMode
		want any
	}{
		{config.SaveSingleTXT, &SingleTXT{}},
		{config.SaveSplitTXT, &SplitTXT{}},
		{config.SaveEPUB, &EPUB{}},
		{config.SaveHTML, &HTML{}},
		{config.SaveLaTeX, &LaTeX{}},
	}
	for _, tc := range cases {
		cfg.SaveMode = tc.mode
		r, err := New(cfg, Options{})
		require.NoError(t, err)
		assert.IsType(t, tc.want, r)
	}

	cfg.SaveMode = "pdf"
	_, err := New(cfg, Options{})
	assert.Error(t, err)
}

func TestIndentLines(t *testing.T) {
	assert.Equal(t, "　一\n\n　二", indentLines("一\n\n二", "　"))
	assert.Equal(t, "一\n二", indentLines("一\n二", ""))
}
