package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type GetTemplateInput struct {
	Entity string
}

type GetTemplateOutput struct {
	FileName    string
	ContentType string
	Content     []byte
}

type GetTemplate interface {
	Execute(ctx context.Context, in GetTemplateInput) (GetTemplateOutput, error)
}

type templateWriter interface {
	WriteTemplate(dst io.Writer, schema crm.Schema) error
}

type getTemplate struct {
	writer templateWriter
}

func NewGetTemplate(writer templateWriter) GetTemplate {
	return &getTemplate{writer: writer}
}

func (uc *getTemplate) Execute(ctx context.Context, in GetTemplateInput) (GetTemplateOutput, error) {
	kind, err := crm.ParseKind(in.Entity)
	if err != nil {
		return GetTemplateOutput{}, ErrUnknownEntity
	}
	schema, err := crm.SchemaFor(kind)
	if err != nil {
		return GetTemplateOutput{}, ErrUnknownEntity
	}

	var buf bytes.Buffer
	if err := uc.writer.WriteTemplate(&buf, schema); err != nil {
		return GetTemplateOutput{}, fmt.Errorf("%w: %v", ErrRenderTemplate, err)
	}

	return GetTemplateOutput{
		FileName:    string(kind) + "_template.xlsx",
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}
