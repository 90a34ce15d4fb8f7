package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/resource"
)

// Resource is the typed REST surface of one collection.
type Resource[T resource.Record] struct {
	client *Client
	path   string
}

func NewResource[T resource.Record](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) itemPath(id resource.ID) string {
	return r.path + "/" + url.PathEscape(id.String())
}

func (r *Resource[T]) List(ctx context.Context, q resource.Query) (resource.Page[T], error) {
	var page resource.Page[T]
	if err := r.client.doJSON(ctx, http.MethodGet, r.path, q.Values(), nil, &page); err != nil {
		return resource.Page[T]{}, err
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return page, nil
}

func (r *Resource[T]) Get(ctx context.Context, id resource.ID) (T, error) {
	var out T
	err := r.client.doJSON(ctx, http.MethodGet, r.itemPath(id), nil, nil, &out)
	return out, err
}

func (r *Resource[T]) Create(ctx context.Context, payload map[string]any) (T, error) {
	var out T
	err := r.client.doJSON(ctx, http.MethodPost, r.path, nil, payload, &out)
	return out, err
}

func (r *Resource[T]) Update(ctx context.Context, id resource.ID, payload map[string]any) (T, error) {
	var out T
	err := r.client.doJSON(ctx, http.MethodPut, r.itemPath(id), nil, payload, &out)
	return out, err
}

func (r *Resource[T]) Delete(ctx context.Context, id resource.ID) error {
	return r.client.doJSON(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil)
}

type bulkDeleteRequest struct {
	IDs []resource.ID `json:"ids"`
}

func (r *Resource[T]) BulkDelete(ctx context.Context, ids []resource.ID) error {
	return r.client.doJSON(ctx, http.MethodPost, r.path+"/bulk-delete", nil, bulkDeleteRequest{IDs: ids}, nil)
}

// Import uploads a spreadsheet as the multipart field "file". The body is
// streamed through a pipe so large files are never held in memory.
func (r *Resource[T]) Import(ctx context.Context, fileName string, src io.Reader) (resource.ImportResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(fileName))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	var result resource.ImportResult
	err := r.client.roundTrip(ctx, request{
		method:      http.MethodPost,
		path:        r.path + "/import",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, &result)
	// unblock the writer if the request never drained the pipe
	pr.Close()
	if err != nil {
		return resource.ImportResult{}, err
	}
	return result, nil
}

// Export streams the export of everything matching q into w and returns the
// number of bytes written.
func (r *Resource[T]) Export(ctx context.Context, format string, q resource.Query, w io.Writer) (int64, error) {
	if format == "" {
		format = "csv"
	}
	params := q.Values()
	params.Del("page")
	params.Del("limit")
	params.Set("format", format)

	resp, err := r.client.send(ctx, request{method: http.MethodGet, path: r.path + "/export", query: params})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, internal.NewNetworkError(fmt.Sprintf("Export interrupted after %d bytes", n), err)
	}
	return n, nil
}
