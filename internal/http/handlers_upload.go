package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"findash/internal/core"
	"findash/internal/ingest"
	"findash/internal/log"
	"findash/internal/summary"
)

var errNoUpload = errors.New("no file uploaded: send a 'file' part or a 'contents' data URL")

// requestError is a malformed request, answered with its status and message.
type requestError struct {
	status int
	msg    string
	err    error
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: msg, err: err}
}

// handleUpload runs the pipeline over one submitted file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentSummary)

	up, err := s.readUpload(w, r)
	if err != nil {
		s.metrics.uploadFailures.Add(1)
		var re *requestError
		if errors.As(err, &re) {
			logger.WarnContext(ctx, "Rejected upload", log.FieldOperation, log.OpUpload,
				log.FieldStatusCode, re.status, log.FieldError, err.Error())
			kind := "bad_request"
			if re.status == http.StatusRequestEntityTooLarge {
				kind = "too_large"
			}
			s.fail(w, r, re.status, re.msg, kind)
			return
		}
		s.inputFailure(w, r, logger, up.Filename, err)
		return
	}

	report, err := s.summarizer.Summarize(ctx, up)
	if err != nil {
		s.metrics.uploadFailures.Add(1)
		if core.IsInputError(err) {
			s.inputFailure(w, r, logger, up.Filename, err)
			return
		}
		logger.Failure(ctx, "Summary failed", log.OpSummarize, err, nil)
		s.fail(w, r, http.StatusInternalServerError, "internal error", core.ErrorKind(err))
		return
	}

	s.metrics.uploads.Add(1)
	s.reports.Put(report)
	logger.ReportComputed(ctx, report)
	if s.history != nil {
		s.history.RecordReport(ctx, report)
	}

	s.respondReport(w, r, report, true)
}

func (s *Server) inputFailure(w http.ResponseWriter, r *http.Request, logger *log.Logger, filename string, err error) {
	logger.WarnContext(r.Context(), "Upload could not be summarized",
		log.FieldOperation, log.OpUpload,
		log.FieldFilename, filename,
		log.FieldErrorKind, core.ErrorKind(err),
		log.FieldError, err.Error())
	s.fail(w, r, http.StatusUnprocessableEntity, err.Error(), core.ErrorKind(err))
}

// readUpload extracts the file and period from a multipart or urlencoded form.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (summary.Upload, error) {
	var up summary.Upload
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if mt == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return up, &requestError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
				err:    err,
			}
		}
		return up, badRequest("malformed form: "+err.Error(), err)
	}

	g, err := core.ParseGranularity(r.FormValue("period"))
	if err != nil {
		return up, badRequest(err.Error(), err)
	}
	up.Granularity = g
	up.Filename = sanitizeFilename(r.FormValue("filename"))

	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["file"]; len(files) > 0 {
			fh := files[0]
			f, err := fh.Open()
			if err != nil {
				return up, badRequest("cannot open uploaded file", err)
			}
			defer f.Close()
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, f); err != nil {
				return up, badRequest("cannot read uploaded file", err)
			}
			up.Data = buf.Bytes()
			if name := sanitizeFilename(fh.Filename); name != "" {
				up.Filename = name
			}
			return up, nil
		}
	}

	contents := strings.TrimSpace(r.FormValue("contents"))
	if contents == "" {
		return up, badRequest(errNoUpload.Error(), errNoUpload)
	}
	data, err := ingest.DecodeDataURL(contents)
	if err != nil {
		return up, err
	}
	up.Data = data
	return up, nil
}

// respondReport writes r as JSON or as the dashboard partial. Fresh reports
// also refresh the history panel.
func (s *Server) respondReport(w http.ResponseWriter, r *http.Request, report *core.Report, fresh bool) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, newReportView(report))
		return
	}
	html, err := s.render("dashboard.html", newDashboardData(report))
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).Failure(r.Context(),
			"Template execution failed", log.OpRender, err, log.NewFields().WithReport(report))
		InternalServerError("could not render dashboard").Write(w)
		return
	}
	resp := NewHTMXResponse().
		TriggerReportComputed(report.ID, string(report.Granularity)).
		BodyHTML(html)
	if fresh {
		resp.TriggerHistoryRefresh()
	}
	resp.Write(w)
}

// fail writes an error in the format the client asked for.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg, kind string) {
	if wantsJSON(r) {
		writeJSON(w, status, errorBody{Error: msg, Kind: kind})
		return
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

func (s *Server) render(name string, data any) (string, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
