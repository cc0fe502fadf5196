package order

import "github.com/velmart/checkout-core/internal/fault"

// Patch is an administrator's partial order update. Each field is
// independently optional; nil means "leave unchanged".
type Patch struct {
	Status        *Status
	PaymentStatus *PaymentStatus
	CustomerPhone *string
	Shipping      *Address
}

// Apply merges the patch into o, enforcing the order state machine:
// confirmed and cancelled are terminal, and nothing returns to pending.
func (p Patch) Apply(o *Order) error {
	if p.Status != nil {
		if err := checkStatusTransition(o.Status, *p.Status); err != nil {
			return err
		}
		o.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		if err := checkPaymentTransition(o.PaymentStatus, *p.PaymentStatus); err != nil {
			return err
		}
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.CustomerPhone != nil {
		o.CustomerPhone = *p.CustomerPhone
	}
	if p.Shipping != nil {
		o.Shipping = *p.Shipping
	}
	return nil
}

func checkStatusTransition(from, to Status) error {
	if from == to {
		return nil
	}
	switch from {
	case StatusPlaced:
		if to == StatusConfirmed || to == StatusCancelled {
			return nil
		}
	case StatusConfirmed, StatusCancelled:
		// terminal
	}
	return fault.Newf(fault.KindValidation, "illegal order status transition %s -> %s", from, to)
}

func checkPaymentTransition(from, to PaymentStatus) error {
	if from == to {
		return nil
	}
	switch from {
	case PaymentPending:
		if to == PaymentCompleted || to == PaymentFailed {
			return nil
		}
	case PaymentCompleted, PaymentFailed:
		// terminal
	}
	return fault.Newf(fault.KindValidation, "illegal payment status transition %s -> %s", from, to)
}
