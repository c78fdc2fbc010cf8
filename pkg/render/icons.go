package render

// icon is an 8×8 1-bit glyph, one byte per row, bit 7 leftmost.
type icon [8]byte

var (
	iconCPU = icon{
		0b00100100,
		0b01111110,
		0b11000011,
		0b01011010,
		0b01011010,
		0b11000011,
		0b01111110,
		0b00100100,
	}
	iconDisk = icon{
		0b11111110,
		0b10000011,
		0b10000011,
		0b10000011,
		0b11111111,
		0b11100111,
		0b11100111,
		0b11111111,
	}
	iconTemp = icon{
		0b00011000,
		0b00100100,
		0b00100100,
		0b00110100,
		0b00110100,
		0b01000010,
		0b01011010,
		0b00111100,
	}
	iconWifi = icon{
		0b00111100,
		0b01000010,
		0b10011001,
		0b00100100,
		0b01000010,
		0b00011000,
		0b00000000,
		0b00011000,
	}
	iconEthernet = icon{
		0b11100000,
		0b10101110,
		0b11101010,
		0b00101110,
		0b00100000,
		0b11101110,
		0b10101010,
		0b11101110,
	}
	iconNoLink = icon{
		0b10000001,
		0b01000010,
		0b00100100,
		0b00011000,
		0b00011000,
		0b00100100,
		0b01000010,
		0b10000001,
	}
)

// linkIcon maps a LinkKind to its status line glyph.
func linkIcon(k LinkKind) icon {
	switch k {
	case LinkWifi:
		return iconWifi
	case LinkEthernet:
		return iconEthernet
	}
	return iconNoLink
}
