package provider

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"atlantic-photo/internal/model"
)

type cloudinaryUploadResult struct {
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
}

type cloudinaryDestroyResult struct {
	Result string `json:"result"`
}

type cloudinaryErrorResult struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Cloudinary talks to the Cloudinary upload API with signed requests.
type Cloudinary struct {
	client    *req.Client
	cloudName string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

func NewCloudinary(baseURL string, cloudName string, apiKey string, apiSecret string, timeout time.Duration) *Cloudinary {
	client := req.C().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetUserAgent("atlantic-photo")

	return &Cloudinary{
		client:    client,
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

func (c *Cloudinary) Upload(ctx context.Context, folder string, filename string, r io.Reader) (Asset, error) {
	params := map[string]string{"folder": folder}

	var result cloudinaryUploadResult
	err := c.call(ctx, "upload", "upload", params, &result, func(rq *req.Request) {
		rq.SetFileReader("file", filename, r)
	})
	if err != nil {
		return Asset{}, err
	}
	return result.asset(), nil
}

// Transform uploads the source URL again with an incoming transformation,
// producing a new asset in folder.
func (c *Cloudinary) Transform(ctx context.Context, source Asset, folder string, params model.TransformParams) (Asset, error) {
	form := map[string]string{
		"file":           source.URL,
		"folder":         folder,
		"transformation": TransformationString(params),
	}

	var result cloudinaryUploadResult
	if err := c.call(ctx, "transform", "upload", form, &result, nil); err != nil {
		return Asset{}, err
	}
	return result.asset(), nil
}

func (c *Cloudinary) Delete(ctx context.Context, publicID string) error {
	var result cloudinaryDestroyResult
	if err := c.call(ctx, "delete", "destroy", map[string]string{"public_id": publicID}, &result, nil); err != nil {
		return err
	}

	if result.Result != "ok" && result.Result != "not found" {
		return providerError("delete", 0, fmt.Errorf("destroy %s: %s", publicID, result.Result))
	}
	return nil
}

func (c *Cloudinary) call(ctx context.Context, op string, action string, params map[string]string, out any, customize func(*req.Request)) error {
	form := make(map[string]string, len(params)+3)
	for k, v := range params {
		form[k] = v
	}
	form["timestamp"] = strconv.FormatInt(c.now().Unix(), 10)
	form["signature"] = signParams(form, c.apiSecret)
	form["api_key"] = c.apiKey

	var apiErr cloudinaryErrorResult
	rq := c.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetSuccessResult(out).
		SetErrorResult(&apiErr)
	if customize != nil {
		customize(rq)
	}

	resp, err := rq.Post(fmt.Sprintf("/v1_1/%s/image/%s", c.cloudName, action))
	if err != nil {
		return Classify(op, err)
	}

	if resp.IsErrorState() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return providerError(op, resp.StatusCode, errors.New(msg))
	}
	if !resp.IsSuccessState() {
		return providerError(op, resp.StatusCode, fmt.Errorf("unexpected response status"))
	}

	return nil
}

func (r cloudinaryUploadResult) asset() Asset {
	url := r.SecureURL
	if url == "" {
		url = r.URL
	}
	return Asset{PublicID: r.PublicID, URL: url}
}

// signParams computes the Cloudinary request signature: SHA-1 over the
// sorted key=value pairs joined by '&', followed by the API secret. The
// file, api_key and resource_type parameters are excluded.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		switch k {
		case "file", "api_key", "resource_type", "signature":
			continue
		}
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

// TransformationString renders params in Cloudinary URL syntax, for example
// "w_500,h_300,c_crop,e_grayscale,bo_2px_solid_blue,a_15".
func TransformationString(p model.TransformParams) string {
	parts := []string{
		"w_" + strconv.Itoa(p.Width),
		"h_" + strconv.Itoa(p.Height),
		"c_" + string(p.Crop),
		"e_" + string(p.Effect),
		"bo_" + cloudinaryBorder(p.Border),
		"a_" + strconv.Itoa(p.Angle),
	}
	return strings.Join(parts, ",")
}

// Cloudinary borders only support solid strokes; dashed styles fall back
// to solid with the same width and colour.
func cloudinaryBorder(b model.Border) string {
	return strings.Replace(string(b), "_dashed_", "_solid_", 1)
}
