package arduino

import (
	"time"

	"github.com/tarm/serial"
)

// OpenPort открывает последовательный порт платы. readTimeout ограничивает
// одно чтение, без него ожидание ответа может зависнуть навсегда.
func OpenPort(name string, baud int, readTimeout time.Duration) (*serial.Port, error) {
	return serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: readTimeout,
	})
}
