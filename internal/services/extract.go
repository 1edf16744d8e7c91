package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Raw-text extraction for the two word-processor containers the document
// path accepts. Both are ZIP archives holding one XML part of interest; the
// extractors stream-decode it and emit one line per paragraph, which is the
// flat shape the question parser consumes.

func extractDocxText(data []byte) (string, error) {
	part, err := openZipPart(data, "word/document.xml")
	if err != nil {
		return "", err
	}
	defer part.Close()

	decoder := xml.NewDecoder(part)
	var (
		output    strings.Builder
		paragraph strings.Builder
		inText    bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.CharData:
			if inText {
				paragraph.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				output.WriteString(paragraph.String())
				output.WriteString("\n")
				paragraph.Reset()
			}
		}
	}

	return output.String(), nil
}

func extractOdtText(data []byte) (string, error) {
	part, err := openZipPart(data, "content.xml")
	if err != nil {
		return "", err
	}
	defer part.Close()

	decoder := xml.NewDecoder(part)
	var (
		output    strings.Builder
		paragraph strings.Builder
		depth     int
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "p" || el.Name.Local == "h" {
				depth++
			}
		case xml.CharData:
			if depth > 0 {
				paragraph.Write(el)
			}
		case xml.EndElement:
			if el.Name.Local == "p" || el.Name.Local == "h" {
				depth--
				if depth == 0 {
					output.WriteString(paragraph.String())
					output.WriteString("\n")
					paragraph.Reset()
				}
			}
		}
	}

	return output.String(), nil
}

func openZipPart(data []byte, name string) (io.ReadCloser, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
