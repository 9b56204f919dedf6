package api

import (
	"errors"
	"net/http"

	"github.com/hackgods/clinic-booking/internal/clinicinfo"
	"github.com/hackgods/clinic-booking/internal/verify"
)

func lookupHandler(dir *clinicinfo.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answer := dir.Lookup(r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, InfoResponse{Topic: answer.Topic, Text: answer.Text})
	}
}

func hoursHandler(dir *clinicinfo.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, InfoResponse{
			Topic: clinicinfo.TopicHours,
			Text:  dir.HoursFor(r.URL.Query().Get("day")),
		})
	}
}

func doctorsHandler(dir *clinicinfo.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		docs := dir.SearchDoctors(q.Get("specialty"), q.Get("language"))
		writeJSON(w, http.StatusOK, InfoResponse{
			Topic:   clinicinfo.TopicDoctors,
			Text:    clinicinfo.DoctorsText(docs, dir.Contact.Phone),
			Doctors: docs,
		})
	}
}

func insuranceHandler(dir *clinicinfo.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		resp := InfoResponse{Topic: clinicinfo.TopicInsurance, Text: dir.InsuranceText(name)}
		if ins, ok := dir.AcceptsInsurance(name); ok {
			resp.Matches = []string{ins}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func servicesHandler(dir *clinicinfo.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyword := r.URL.Query().Get("keyword")
		services, _ := dir.MatchServices(keyword)
		writeJSON(w, http.StatusOK, InfoResponse{
			Topic:   clinicinfo.TopicServices,
			Text:    dir.ServicesText(keyword),
			Matches: services,
		})
	}
}

func locationHandler(dir *clinicinfo.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, InfoResponse{
			Topic: clinicinfo.TopicLocation,
			Text:  dir.LocationInfo(r.URL.Query().Get("type")),
		})
	}
}

func verifyEmiratesIDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmiratesIDRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		err := verify.EmiratesID(req.Last5Digits)
		resp := VerifyResponse{Verified: err == nil, Message: verify.EmiratesIDMessage(req.Last5Digits, err)}

		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, resp)
		case errors.Is(err, verify.ErrEmiratesIDNotFound):
			writeJSON(w, http.StatusNotFound, resp)
		default:
			writeJSON(w, http.StatusBadRequest, resp)
		}
	}
}

func verifyPhoneHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PhoneRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		err := verify.Phone(req.Phone)
		resp := VerifyResponse{Verified: err == nil, Message: verify.PhoneMessage(req.Phone, err)}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
