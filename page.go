package tex2html

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"

	"golang.org/x/text/language"

	"github.com/alnah/go-tex2html/internal/assets"
	"github.com/alnah/go-tex2html/internal/fileutil"
	"github.com/alnah/go-tex2html/internal/pipeline"
)

// defaultTOCTitle heads the table of contents requested by \tableofcontents.
const defaultTOCTitle = "Contents"

// pageData feeds the page template.
type pageData struct {
	Lang         string
	Title        string
	ShowTitle    bool
	Author       string
	Date         string
	Macros       map[string]string
	Body         template.HTML
	Bibliography template.HTML
}

// RenderPage assembles a complete HTML document from a conversion result:
// the built-in page template, the selected style plus code highlighting
// CSS, an optional table of contents, and image files resolved against
// opts.SourceDir.
func RenderPage(ctx context.Context, result *ConvertResult, opts PageOptions) ([]byte, error) {
	if result == nil {
		return nil, ErrNilResult
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loader, err := assets.NewAssetResolver(opts.AssetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}

	css, err := resolveStyle(loader, opts.Style)
	if err != nil {
		return nil, err
	}
	codeCSS, err := pipeline.NewCodeHighlighter().CSS()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	css += "\n" + codeCSS
	if opts.CSS != "" {
		css += "\n" + opts.CSS
	}

	page, err := executePage(loader, result, opts)
	if err != nil {
		return nil, err
	}

	page = (&pipeline.CSSInjection{}).InjectCSS(ctx, page, css)

	var tocData *pipeline.TOCData
	switch {
	case opts.TOC != nil:
		minDepth, maxDepth := opts.TOC.depths()
		tocData = &pipeline.TOCData{Title: opts.TOC.Title, MinDepth: minDepth, MaxDepth: maxDepth}
	case result.HasTOC:
		tocData = &pipeline.TOCData{Title: defaultTOCTitle, MinDepth: DefaultTOCMinDepth, MaxDepth: DefaultTOCMaxDepth}
	}
	page, err = pipeline.NewTOCInjection().InjectTOC(ctx, page, tocData)
	if err != nil {
		return nil, fmt.Errorf("injecting TOC: %w", err)
	}

	page, err = pipeline.ResolveImages(page, opts.SourceDir, nil)
	if err != nil {
		return nil, fmt.Errorf("resolving images: %w", err)
	}

	return []byte(page), nil
}

func executePage(loader assets.AssetLoader, result *ConvertResult, opts PageOptions) (string, error) {
	content, err := loader.LoadTemplate(assets.PageTemplateName)
	if err != nil {
		if errors.Is(err, assets.ErrTemplateNotFound) {
			return "", fmt.Errorf("%w: %v", ErrTemplateNotFound, err)
		}
		return "", fmt.Errorf("loading page template: %w", err)
	}
	tmpl, err := template.New("page").Parse(content)
	if err != nil {
		return "", fmt.Errorf("%w: parsing template: %v", ErrPageRender, err)
	}

	lang := "en"
	if opts.Lang != "" {
		lang = language.Make(opts.Lang).String()
	}
	title := result.Metadata.Title
	if title == "" {
		title = "Document"
	}
	macros := result.Macros
	if macros == nil {
		// A nil map would render as null, which KaTeX rejects.
		macros = map[string]string{}
	}

	data := pageData{
		Lang:         lang,
		Title:        title,
		ShowTitle:    !opts.OmitTitle && !result.TitleRendered && result.Metadata.Title != "",
		Author:       result.Metadata.Author,
		Date:         result.Metadata.Date,
		Macros:       macros,
		Body:         template.HTML(result.Resolve()),    // #nosec G203 -- generated by the pipeline
		Bibliography: template.HTML(result.Bibliography), // #nosec G203 -- generated by the pipeline
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// resolveStyle resolves a style input (name, path, or CSS content) to CSS.
func resolveStyle(loader assets.AssetLoader, input string) (string, error) {
	if input == "" {
		input = assets.DefaultStyleName
	}

	if fileutil.IsCSS(input) {
		return input, nil
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return "", fmt.Errorf("loading style file %q: %w", input, err)
		}
		return string(content), nil
	}

	css, err := loader.LoadStyle(input)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) {
			return "", fmt.Errorf("%w: %q", ErrStyleNotFound, input)
		}
		return "", fmt.Errorf("loading style %q: %w", input, err)
	}
	return css, nil
}

// Styles lists the built-in style names.
func Styles() []string {
	return assets.Styles()
}
