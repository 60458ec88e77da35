package http

import "context"

// Future is the pending result of an asynchronous call. Wait returns the
// same text and error the blocking call would have returned.
type Future struct {
	done chan struct{}
	text string
	err  error
}

// Done is closed once the call has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the call finishes.
func (f *Future) Wait() (string, error) {
	<-f.done
	return f.text, f.err
}

// Go starts req on its own goroutine.
func (c *Client) Go(ctx context.Context, req *Request) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.text, f.err = c.Text(ctx, req)
	}()
	return f
}

// Text sends req and returns only the response text.
func (c *Client) Text(ctx context.Context, req *Request) (string, error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Get sends a GET. body, when not empty, is a JSON object whose top-level
// pairs become query parameters.
func (c *Client) Get(ctx context.Context, url, cookie string, headers map[string]string, body string) (string, error) {
	return c.Text(ctx, NewRequest(MethodGet, url, cookie, headers, body))
}

// GetJSON is Get with the query parameters given as a value marshalled to JSON.
func (c *Client) GetJSON(ctx context.Context, url, cookie string, headers map[string]string, value any) (string, error) {
	req := NewRequest(MethodGet, url, cookie, headers, "")
	req.Body = JSONBody(value)
	return c.Text(ctx, req)
}

// Post sends body verbatim as a POST payload.
func (c *Client) Post(ctx context.Context, url, cookie string, headers map[string]string, body string) (string, error) {
	return c.Text(ctx, NewRequest(MethodPost, url, cookie, headers, body))
}

// Put sends body verbatim as a PUT payload.
func (c *Client) Put(ctx context.Context, url, cookie string, headers map[string]string, body string) (string, error) {
	return c.Text(ctx, NewRequest(MethodPut, url, cookie, headers, body))
}

// Delete sends body verbatim as a DELETE payload.
func (c *Client) Delete(ctx context.Context, url, cookie string, headers map[string]string, body string) (string, error) {
	return c.Text(ctx, NewRequest(MethodDelete, url, cookie, headers, body))
}

// GetAsync is the non-blocking form of Get.
func (c *Client) GetAsync(ctx context.Context, url, cookie string, headers map[string]string, body string) *Future {
	return c.Go(ctx, NewRequest(MethodGet, url, cookie, headers, body))
}

// PostAsync is the non-blocking form of Post.
func (c *Client) PostAsync(ctx context.Context, url, cookie string, headers map[string]string, body string) *Future {
	return c.Go(ctx, NewRequest(MethodPost, url, cookie, headers, body))
}

// PutAsync is the non-blocking form of Put.
func (c *Client) PutAsync(ctx context.Context, url, cookie string, headers map[string]string, body string) *Future {
	return c.Go(ctx, NewRequest(MethodPut, url, cookie, headers, body))
}

// DeleteAsync is the non-blocking form of Delete.
func (c *Client) DeleteAsync(ctx context.Context, url, cookie string, headers map[string]string, body string) *Future {
	return c.Go(ctx, NewRequest(MethodDelete, url, cookie, headers, body))
}

// Get sends a GET with a default client.
func Get(ctx context.Context, url, cookie string, headers map[string]string, body string) (string, error) {
	return NewClient().Get(ctx, url, cookie, headers, body)
}

// Post sends a POST with a default client.
func Post(ctx context.Context, url, cookie string, headers map[string]string, body string) (string, error) {
	return NewClient().Post(ctx, url, cookie, headers, body)
}

// Put sends a PUT with a default client.
func Put(ctx context.Context, url, cookie string, headers map[string]string, body string) (string, error) {
	return NewClient().Put(ctx, url, cookie, headers, body)
}

// Delete sends a DELETE with a default client.
func Delete(ctx context.Context, url, cookie string, headers map[string]string, body string) (string, error) {
	return NewClient().Delete(ctx, url, cookie, headers, body)
}
