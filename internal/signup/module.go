package signup

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	potp "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gosignup/internal/pkg/clock"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/encrypt"
	"github.com/shandysiswandi/gosignup/internal/pkg/hash"
	"github.com/shandysiswandi/gosignup/internal/pkg/idempotency"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
	"github.com/shandysiswandi/gosignup/internal/pkg/mail"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/pkg/otp"
	"github.com/shandysiswandi/gosignup/internal/pkg/router"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	pkgsms "github.com/shandysiswandi/gosignup/internal/pkg/sms"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/pkg/validator"
	"github.com/shandysiswandi/gosignup/internal/signup/inbound"
	"github.com/shandysiswandi/gosignup/internal/signup/outbound/db"
	"github.com/shandysiswandi/gosignup/internal/signup/outbound/email"
	"github.com/shandysiswandi/gosignup/internal/signup/outbound/mq"
	"github.com/shandysiswandi/gosignup/internal/signup/outbound/otpstore"
	"github.com/shandysiswandi/gosignup/internal/signup/outbound/pending"
	"github.com/shandysiswandi/gosignup/internal/signup/outbound/sms"
	"github.com/shandysiswandi/gosignup/internal/signup/usecase"
)

// PublicEndpoints are the signup routes reachable without authentication.
var PublicEndpoints = inbound.PublicEndpoints

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	Redis        redis.UniversalClient      // required when modules.signup.otp_store is redis
	Router       *router.Router             `validate:"required"`
	Sessions     *session.Manager           `validate:"required"`
	Idempotency  idempotency.Idempotency    `validate:"required"`
	Messaging    messaging.Publisher        `validate:"required"`
	Mail         mail.Mail                  `validate:"required"`
	SMS          pkgsms.SMS                 `validate:"required"`
	Encryptor    encrypt.Encryptor          `validate:"required"`
	PasswordHash hash.Hash                  `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	store, err := newOTPStore(dep)
	if err != nil {
		return err
	}

	notifier := usecase.NewDualChannelNotifier(
		email.New(dep.Mail, dep.Instrument),
		sms.New(dep.SMS, dep.Instrument),
		dep.Config,
		dep.Instrument,
	)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.PasswordHash, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Clock, dep.Instrument),
		OTPStore:      store,
		Pending:       pending.New(dep.Sessions, dep.Encryptor, dep.Instrument),
		Notifier:      notifier,
		Sessions:      dep.Sessions,
		Idempotency:   dep.Idempotency,
		Code:          otp.NewNumeric(potp.DigitsSix),
		Validator:     dep.Validator,
		Config:        dep.Config,
		UID:           dep.UID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func newOTPStore(dep Dependency) (usecase.OTPStore, error) {
	driver := strings.TrimSpace(dep.Config.GetString("modules.signup.otp_store"))

	switch driver {
	case otpstore.DriverMemory, "":
		return otpstore.NewMemory(), nil
	case otpstore.DriverRedis:
		if dep.Redis == nil {
			return nil, fmt.Errorf("signup: otp store %q needs a redis client", driver)
		}
		window := func() time.Duration { return usecase.OTPWindow(dep.Config) }
		return otpstore.NewRedis(dep.Redis, window, dep.Instrument), nil
	default:
		return nil, fmt.Errorf("%w: %s", otpstore.ErrUnknownDriver, driver)
	}
}
