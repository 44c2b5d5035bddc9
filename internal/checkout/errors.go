package checkout

import "errors"

// Guard violations. None of them reaches the network or changes state.
var (
	ErrNoPaymentMethod  = errors.New("checkout: no payment method selected")
	ErrTermsNotAccepted = errors.New("checkout: terms not accepted")
	ErrNoPendingBooking = errors.New("checkout: no pending booking")
	ErrSubmitInProgress = errors.New("checkout: submit already in progress")
	ErrAlreadySubmitted = errors.New("checkout: booking already created")
)

var (
	// ErrBookingMismatch means the stored pending booking is for another
	// showtime or unreadable; it has been discarded.
	ErrBookingMismatch = errors.New("checkout: pending booking does not match showtime")
	// ErrBookingFailed wraps a failed booking creation.
	ErrBookingFailed = errors.New("checkout: booking failed")
	// ErrPaymentSetup wraps a failed payment session generation; the booking
	// exists and ResumePayment may retry.
	ErrPaymentSetup = errors.New("checkout: payment setup failed")
	// ErrNothingToResume is returned by ResumePayment when no booking awaits
	// a payment session.
	ErrNothingToResume = errors.New("checkout: nothing to resume")
	// ErrClosed is returned by operations on a closed flow.
	ErrClosed = errors.New("checkout: flow closed")

	errNoBookingID = errors.New("backend returned no booking id")
)

// Messages shown to the customer.
const (
	MsgNoPaymentMethod = "Please select a payment method"
	MsgTerms           = "Please agree to the terms and conditions"
	MsgNoPending       = "No booking data found. Please select seats first."
	MsgMismatch        = "Booking data mismatch. Please try again."
	MsgBookingFailed   = "Booking failed. Please try again."
	MsgPaymentSetup    = "Could not generate the payment code. Please try again."
	MsgTimeout         = "Payment timeout. Booking has been cancelled."
	MsgCancelled       = "This booking has been cancelled."
	MsgConfirmed       = "Payment confirmed. Enjoy the movie!"
	MsgPollFailed      = "Could not check payment status. Retrying…"
)
