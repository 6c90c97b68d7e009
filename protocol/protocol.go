// Package protocol holds the byte-level receive path of a serial modem link:
// a single-producer/single-consumer ring filled from the UART receive side and
// a framer that cuts it into CR/LF terminated text lines.
package protocol
