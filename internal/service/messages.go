package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
)

const (
	institutionName = "Begum Nusrat Bhutto Women University"
	stampLayout     = "02 Jan 2006, 03:04 PM"
)

func formatDetails(r *model.LeaveRequestModel, loc *time.Location) string {
	return strings.Join([]string{
		"Reason       : " + r.LeaveFor,
		"Leaving with : " + r.PickUpWith,
		"Transport    : " + string(r.Transport),
		"Vehicle No   : " + r.VehicleNo,
		"Date & Time  : " + r.ScheduledAt.In(loc).Format(stampLayout),
	}, "\n")
}

func newRequestMail(r *model.LeaveRequestModel, loc *time.Location) (subject, body string) {
	subject = "New Leave Request Submitted"
	body = fmt.Sprintf(`Dear Warden,

A student has submitted a new leave request.

Student  : %s (%s)
E-mail   : %s
Hostel   : %s

%s

Please log in to approve or reject.

Thank you.`, r.Name, r.StudentID, r.Email, r.Category, formatDetails(r, loc))
	return subject, body
}

func decisionMail(r *model.LeaveRequestModel, loc *time.Location) (subject, body string) {
	status := strings.ToUpper(string(r.Status))
	comment := r.ApproverComment
	if comment == "" {
		comment = "-"
	}
	subject = "Your leave request has been " + status
	body = fmt.Sprintf(`Dear %s,

Your leave request has been %s.

%s

Warden's comment:
%s

Thank you.`, r.Name, status, formatDetails(r, loc), comment)
	return subject, body
}

func gateSMS(r *model.LeaveRequestModel, at time.Time) string {
	stamp := at.Format(stampLayout)
	if r.Status == model.RequestIn {
		return fmt.Sprintf("Dear Parent/Guardian, %s (%s) has RETURNED and CHECKED-IN at %s on %s.",
			r.Name, r.StudentID, institutionName, stamp)
	}

	transport := "by Public Transport"
	if r.Transport == model.TransportPrivate {
		transport = fmt.Sprintf("by Private Transport (Vehicle %s, Driver %s)", r.VehicleNo, r.DriverName)
	}
	return fmt.Sprintf("Dear Parent/Guardian, %s (%s) has LEFT %s %s. Reason: %s. on %s",
		r.Name, r.StudentID, institutionName, transport, r.LeaveFor, stamp)
}
