package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tweetapi/errs"
)

// maxBodyBytes limits the size of json request bodies.
const maxBodyBytes = 1 << 20

// respond writes v as json with the given status code.
func respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs.LogError(r, err)
	}
}

// respondDetail writes a json object with a single detail message.
func respondDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	respond(w, r, status, map[string]string{"detail": detail})
}

// decodeJSON parses the request's json body into dst. An empty body leaves dst
// untouched, so that the validation of required fields reports what's missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errs.Errorf(errs.EINVALID, "The request body is too large.")
	}
	return errs.Errorf(errs.EINVALID, "JSON parse error - %s", err.Error())
}

// idVar parses a numeric route variable. Values that don't fit into an int
// can't be the ID of any record.
func idVar(r *http.Request, name, notFoundMsg string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, errs.Errorf(errs.ENOTFOUND, notFoundMsg)
	}
	return id, nil
}
